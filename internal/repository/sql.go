package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

// SQLStore persists the collections as relational tables through GORM.
// Postgres is the production target; SQLite backs local runs.
type SQLStore struct {
	db *gorm.DB
}

type credentialRecord struct {
	Email        string `gorm:"primaryKey;column:email"`
	UID          string `gorm:"column:uid;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash"`
	CreatedAt    time.Time
}

func (credentialRecord) TableName() string { return "credentials" }

type userRecord struct {
	UID            string `gorm:"primaryKey;column:uid"`
	Email          string `gorm:"column:email"`
	Role           string `gorm:"column:role"`
	Name           string `gorm:"column:name"`
	Address        string `gorm:"column:address"`
	PhoneNumber    string `gorm:"column:phone_number"`
	LoyaltyPoints  int64  `gorm:"column:loyalty_points;not null;default:0"`
	RestaurantName string `gorm:"column:restaurant_name"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) model() models.UserProfile {
	return models.UserProfile{
		UID:            r.UID,
		Email:          r.Email,
		Role:           models.Role(r.Role),
		Name:           r.Name,
		Address:        r.Address,
		PhoneNumber:    r.PhoneNumber,
		LoyaltyPoints:  r.LoyaltyPoints,
		RestaurantName: r.RestaurantName,
	}
}

type restaurantRecord struct {
	ID             string `gorm:"primaryKey;column:id"`
	RestaurantName string `gorm:"column:restaurant_name"`
	CreatedAt      time.Time
}

func (restaurantRecord) TableName() string { return "restaurants" }

type menuItemRecord struct {
	ID           string `gorm:"primaryKey;column:id"`
	RestaurantID string `gorm:"column:restaurant_id;index"`
	Name         string `gorm:"column:name"`
	Price        string `gorm:"column:price"`
	CreatedAt    time.Time
}

func (menuItemRecord) TableName() string { return "menu_items" }

func (r menuItemRecord) model() models.MenuItem {
	return models.MenuItem{ID: r.ID, RestaurantID: r.RestaurantID, Name: r.Name, Price: r.Price}
}

type reviewRecord struct {
	ID           string     `gorm:"primaryKey;column:id"`
	RestaurantID string     `gorm:"column:restaurant_id;uniqueIndex:idx_reviews_restaurant_user"`
	UserID       string     `gorm:"column:user_id;uniqueIndex:idx_reviews_restaurant_user"`
	Rating       int        `gorm:"column:rating"`
	Comment      string     `gorm:"column:comment"`
	Timestamp    *time.Time `gorm:"column:timestamp"`
	CreatedAt    time.Time
}

func (reviewRecord) TableName() string { return "reviews" }

func (r reviewRecord) model() models.Review {
	return models.Review{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Timestamp:    r.Timestamp,
	}
}

type orderRecord struct {
	ID             string            `gorm:"primaryKey;column:id"`
	UserID         string            `gorm:"column:user_id;index"`
	Items          []models.CartItem `gorm:"column:items;serializer:json"`
	Total          string            `gorm:"column:total"`
	Timestamp      time.Time         `gorm:"column:timestamp;index"`
	Status         string            `gorm:"column:status"`
	PaymentMethod  string            `gorm:"column:payment_method"`
	PointsCredited bool              `gorm:"column:points_credited;index"`
}

func (orderRecord) TableName() string { return "orders" }

func (r orderRecord) model() models.Order {
	return models.Order{
		ID:             r.ID,
		UserID:         r.UserID,
		Items:          r.Items,
		Total:          r.Total,
		Timestamp:      r.Timestamp,
		Status:         models.OrderStatus(r.Status),
		PaymentMethod:  models.PaymentMethod(r.PaymentMethod),
		PointsCredited: r.PointsCredited,
	}
}

// NewSQLStore opens the database for driver ("postgres" or "sqlite") and
// migrates the schema.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sql: open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite allows one writer; a single connection queues writers
		// instead of failing them with "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql: open %s: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&credentialRecord{},
		&userRecord{},
		&restaurantRecord{},
		&menuItemRecord{},
		&reviewRecord{},
		&orderRecord{},
	); err != nil {
		return nil, fmt.Errorf("sql: migrate: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("sql: unsupported driver %q", driver)
	}
}

func (s *SQLStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// CreateCredential inserts a credential row
func (s *SQLStore) CreateCredential(ctx context.Context, cred Credential) error {
	email := normalizeEmail(cred.Email)
	var existing int64
	if err := s.conn(ctx).Model(&credentialRecord{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return fmt.Errorf("sql: count credentials: %w", err)
	}
	if existing > 0 {
		return ErrEmailTaken
	}

	rec := credentialRecord{Email: email, UID: cred.UID, PasswordHash: cred.PasswordHash}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("sql: insert credential: %w", err)
	}
	return nil
}

// GetCredential finds a credential by email
func (s *SQLStore) GetCredential(ctx context.Context, email string) (*Credential, error) {
	var rec credentialRecord
	err := s.conn(ctx).Where("email = ?", normalizeEmail(email)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql: find credential: %w", err)
	}
	return &Credential{Email: rec.Email, UID: rec.UID, PasswordHash: rec.PasswordHash}, nil
}

// CreateUser writes the user row, replacing any existing one
func (s *SQLStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	rec := userRecord{
		UID:            profile.UID,
		Email:          profile.Email,
		Role:           string(profile.Role),
		Name:           profile.Name,
		Address:        profile.Address,
		PhoneNumber:    profile.PhoneNumber,
		LoyaltyPoints:  profile.LoyaltyPoints,
		RestaurantName: profile.RestaurantName,
	}
	if err := s.conn(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("sql: write user: %w", err)
	}
	return nil
}

func (s *SQLStore) getUser(db *gorm.DB, uid string) (*userRecord, error) {
	var rec userRecord
	err := db.Where("uid = ?", uid).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql: find user: %w", err)
	}
	return &rec, nil
}

// GetUser reads a user row
func (s *SQLStore) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	rec, err := s.getUser(s.conn(ctx), uid)
	if err != nil {
		return nil, err
	}
	profile := rec.model()
	return &profile, nil
}

// UpdateProfile updates the editable columns
func (s *SQLStore) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error) {
	cols := map[string]any{}
	if update.Name != nil {
		cols["name"] = *update.Name
	}
	if update.Address != nil {
		cols["address"] = *update.Address
	}
	if update.PhoneNumber != nil {
		cols["phone_number"] = *update.PhoneNumber
	}

	var out *userRecord
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cols) > 0 {
			res := tx.Model(&userRecord{}).Where("uid = ?", uid).Updates(cols)
			if res.Error != nil {
				return fmt.Errorf("sql: update user: %w", res.Error)
			}
		}
		rec, err := s.getUser(tx, uid)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile := out.model()
	return &profile, nil
}

// AdjustLoyaltyPoints runs a conditional UPDATE so the balance never goes negative
func (s *SQLStore) AdjustLoyaltyPoints(ctx context.Context, uid string, delta int64) (int64, error) {
	var balance int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRecord{}).
			Where("uid = ? AND loyalty_points + ? >= 0", uid, delta).
			UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("sql: adjust loyalty points: %w", res.Error)
		}

		rec, err := s.getUser(tx, uid)
		if err != nil {
			return err
		}
		balance = rec.LoyaltyPoints
		if res.RowsAffected == 0 {
			return ErrInsufficientPoints
		}
		return nil
	})
	return balance, err
}

// CreateRestaurant writes the restaurant row
func (s *SQLStore) CreateRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	rec := restaurantRecord{ID: restaurant.ID, RestaurantName: restaurant.RestaurantName}
	if err := s.conn(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("sql: write restaurant: %w", err)
	}
	return nil
}

// GetRestaurant reads a restaurant row
func (s *SQLStore) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var rec restaurantRecord
	err := s.conn(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql: find restaurant: %w", err)
	}
	return &models.Restaurant{ID: rec.ID, RestaurantName: rec.RestaurantName}, nil
}

// ListRestaurants returns restaurants in creation order
func (s *SQLStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var recs []restaurantRecord
	if err := s.conn(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sql: list restaurants: %w", err)
	}
	out := make([]models.Restaurant, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.Restaurant{ID: rec.ID, RestaurantName: rec.RestaurantName})
	}
	return out, nil
}

// ListMenuItems returns a restaurant's menu in creation order
func (s *SQLStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var recs []menuItemRecord
	if err := s.conn(ctx).Where("restaurant_id = ?", restaurantID).Order("created_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sql: list menu: %w", err)
	}
	out := make([]models.MenuItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.model())
	}
	return out, nil
}

// GetMenuItem reads one menu item
func (s *SQLStore) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	var rec menuItemRecord
	err := s.conn(ctx).Where("id = ? AND restaurant_id = ?", itemID, restaurantID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql: find menu item: %w", err)
	}
	item := rec.model()
	return &item, nil
}

// AddMenuItem inserts a menu item
func (s *SQLStore) AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	rec := menuItemRecord{ID: item.ID, RestaurantID: item.RestaurantID, Name: item.Name, Price: item.Price}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return models.MenuItem{}, fmt.Errorf("sql: insert menu item: %w", err)
	}
	return item, nil
}

// DeleteMenuItem removes a menu item
func (s *SQLStore) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error {
	res := s.conn(ctx).Where("id = ? AND restaurant_id = ?", itemID, restaurantID).Delete(&menuItemRecord{})
	if res.Error != nil {
		return fmt.Errorf("sql: delete menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// ListReviews returns a restaurant's reviews
func (s *SQLStore) ListReviews(ctx context.Context, restaurantID string) ([]models.Review, error) {
	var recs []reviewRecord
	if err := s.conn(ctx).Where("restaurant_id = ?", restaurantID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sql: list reviews: %w", err)
	}
	out := make([]models.Review, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.model())
	}
	return out, nil
}

// HasReview reports whether the user already reviewed the restaurant
func (s *SQLStore) HasReview(ctx context.Context, restaurantID, userID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&reviewRecord{}).
		Where("restaurant_id = ? AND user_id = ?", restaurantID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("sql: count reviews: %w", err)
	}
	return n > 0, nil
}

// AddReview inserts a review; the composite unique index rejects a second one
func (s *SQLStore) AddReview(ctx context.Context, review models.Review) (models.Review, error) {
	if review.ID == "" {
		review.ID = newID()
	}
	rec := reviewRecord{
		ID:           review.ID,
		RestaurantID: review.RestaurantID,
		UserID:       review.UserID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		Timestamp:    review.Timestamp,
	}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Review{}, ErrReviewExists
		}
		// Not every dialector translates constraint errors.
		if exists, hasErr := s.HasReview(ctx, review.RestaurantID, review.UserID); hasErr == nil && exists {
			return models.Review{}, ErrReviewExists
		}
		return models.Review{}, fmt.Errorf("sql: insert review: %w", err)
	}
	return review, nil
}

// CreateOrder inserts an order row
func (s *SQLStore) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == "" {
		order.ID = newID()
	}
	rec := orderRecord{
		ID:             order.ID,
		UserID:         order.UserID,
		Items:          order.Items,
		Total:          order.Total,
		Timestamp:      order.Timestamp,
		Status:         string(order.Status),
		PaymentMethod:  string(order.PaymentMethod),
		PointsCredited: order.PointsCredited,
	}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return models.Order{}, fmt.Errorf("sql: insert order: %w", err)
	}
	return order, nil
}

// GetOrder reads an order row
func (s *SQLStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var rec orderRecord
	err := s.conn(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql: find order: %w", err)
	}
	order := rec.model()
	return &order, nil
}

// ListOrders returns orders matching the filter in placement order
func (s *SQLStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.conn(ctx).Model(&orderRecord{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.PointsCredited != nil {
		q = q.Where("points_credited = ?", *filter.PointsCredited)
	}

	var recs []orderRecord
	if err := q.Order("timestamp").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sql: list orders: %w", err)
	}
	out := make([]models.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.model())
	}
	return out, nil
}

// UpdateOrderStatus sets an order's status
func (s *SQLStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	res := s.conn(ctx).Model(&orderRecord{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return nil, fmt.Errorf("sql: update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}
	return s.GetOrder(ctx, id)
}

// MarkPointsCredited flags an order as credited
func (s *SQLStore) MarkPointsCredited(ctx context.Context, id string) error {
	res := s.conn(ctx).Model(&orderRecord{}).Where("id = ?", id).Update("points_credited", true)
	if res.Error != nil {
		return fmt.Errorf("sql: mark points credited: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
