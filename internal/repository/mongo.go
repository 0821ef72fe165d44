package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

const (
	colCredentials = "credentials"
	colUsers       = "users"
	colRestaurants = "restaurants"
	colMenu        = "menu"
	colReviews     = "reviews"
	colOrders      = "orders"
)

// MongoStore keeps each collection as a MongoDB collection. Review
// uniqueness is a unique compound index and loyalty changes use a
// conditional $inc.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoCredential struct {
	Email        string `bson:"_id"`
	UID          string `bson:"uid"`
	PasswordHash string `bson:"passwordHash"`
}

// NewMongoStore connects, pings and creates the indexes the store relies on.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		colReviews: {
			Keys:    bson.D{{Key: "restaurantId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("restaurant_user_unique"),
		},
		colMenu: {
			Keys: bson.D{{Key: "restaurantId", Value: 1}},
		},
		colOrders: {
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	}

	for col, model := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongo: create index on %s: %w", col, err)
		}
	}
	return nil
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any) ([]T, error) {
	cur, err := col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCredential inserts the credential keyed by email
func (s *MongoStore) CreateCredential(ctx context.Context, cred Credential) error {
	doc := mongoCredential{Email: normalizeEmail(cred.Email), UID: cred.UID, PasswordHash: cred.PasswordHash}
	if _, err := s.col(colCredentials).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("mongo: insert credential: %w", err)
	}
	return nil
}

// GetCredential finds a credential by email
func (s *MongoStore) GetCredential(ctx context.Context, email string) (*Credential, error) {
	var doc mongoCredential
	err := s.col(colCredentials).FindOne(ctx, bson.M{"_id": normalizeEmail(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find credential: %w", err)
	}
	return &Credential{Email: doc.Email, UID: doc.UID, PasswordHash: doc.PasswordHash}, nil
}

// CreateUser upserts users/{uid}
func (s *MongoStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	_, err := s.col(colUsers).ReplaceOne(ctx, bson.M{"_id": profile.UID}, profile, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: write user: %w", err)
	}
	return nil
}

// GetUser reads users/{uid}
func (s *MongoStore) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.col(colUsers).FindOne(ctx, bson.M{"_id": uid}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return &profile, nil
}

// UpdateProfile $sets the editable fields
func (s *MongoStore) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.PhoneNumber != nil {
		set["phoneNumber"] = *update.PhoneNumber
	}
	if len(set) == 0 {
		return s.GetUser(ctx, uid)
	}

	var profile models.UserProfile
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col(colUsers).FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set}, opts).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: update user: %w", err)
	}
	return &profile, nil
}

// AdjustLoyaltyPoints applies $inc only when the balance stays non-negative
func (s *MongoStore) AdjustLoyaltyPoints(ctx context.Context, uid string, delta int64) (int64, error) {
	filter := bson.M{"_id": uid}
	if delta < 0 {
		filter["loyaltyPoints"] = bson.M{"$gte": -delta}
	}

	var profile models.UserProfile
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col(colUsers).FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"loyaltyPoints": delta}}, opts).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := s.GetUser(ctx, uid)
		if getErr != nil {
			return 0, getErr
		}
		return current.LoyaltyPoints, ErrInsufficientPoints
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: adjust loyalty points: %w", err)
	}
	return profile.LoyaltyPoints, nil
}

// CreateRestaurant upserts restaurants/{id}
func (s *MongoStore) CreateRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	_, err := s.col(colRestaurants).ReplaceOne(ctx, bson.M{"_id": restaurant.ID}, restaurant, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: write restaurant: %w", err)
	}
	return nil
}

// GetRestaurant reads restaurants/{id}
func (s *MongoStore) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.col(colRestaurants).FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find restaurant: %w", err)
	}
	return &restaurant, nil
}

// ListRestaurants returns every restaurant
func (s *MongoStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	out, err := findAll[models.Restaurant](ctx, s.col(colRestaurants), bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: list restaurants: %w", err)
	}
	return out, nil
}

// ListMenuItems returns a restaurant's menu
func (s *MongoStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	out, err := findAll[models.MenuItem](ctx, s.col(colMenu), bson.M{"restaurantId": restaurantID})
	if err != nil {
		return nil, fmt.Errorf("mongo: list menu: %w", err)
	}
	return out, nil
}

// GetMenuItem reads one menu item
func (s *MongoStore) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.col(colMenu).FindOne(ctx, bson.M{"_id": itemID, "restaurantId": restaurantID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find menu item: %w", err)
	}
	return &item, nil
}

// AddMenuItem inserts a menu item
func (s *MongoStore) AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	if _, err := s.col(colMenu).InsertOne(ctx, item); err != nil {
		return models.MenuItem{}, fmt.Errorf("mongo: insert menu item: %w", err)
	}
	return item, nil
}

// DeleteMenuItem removes a menu item
func (s *MongoStore) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error {
	res, err := s.col(colMenu).DeleteOne(ctx, bson.M{"_id": itemID, "restaurantId": restaurantID})
	if err != nil {
		return fmt.Errorf("mongo: delete menu item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// ListReviews returns a restaurant's reviews
func (s *MongoStore) ListReviews(ctx context.Context, restaurantID string) ([]models.Review, error) {
	out, err := findAll[models.Review](ctx, s.col(colReviews), bson.M{"restaurantId": restaurantID})
	if err != nil {
		return nil, fmt.Errorf("mongo: list reviews: %w", err)
	}
	return out, nil
}

// HasReview counts reviews for the (restaurant, user) pair
func (s *MongoStore) HasReview(ctx context.Context, restaurantID, userID string) (bool, error) {
	n, err := s.col(colReviews).CountDocuments(ctx, bson.M{"restaurantId": restaurantID, "userId": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo: count reviews: %w", err)
	}
	return n > 0, nil
}

// AddReview inserts a review; the unique index rejects a second one
func (s *MongoStore) AddReview(ctx context.Context, review models.Review) (models.Review, error) {
	if review.ID == "" {
		review.ID = newID()
	}
	if _, err := s.col(colReviews).InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Review{}, ErrReviewExists
		}
		return models.Review{}, fmt.Errorf("mongo: insert review: %w", err)
	}
	return review, nil
}

// CreateOrder inserts an order
func (s *MongoStore) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == "" {
		order.ID = newID()
	}
	if _, err := s.col(colOrders).InsertOne(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("mongo: insert order: %w", err)
	}
	return order, nil
}

// GetOrder reads orders/{id}
func (s *MongoStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.col(colOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find order: %w", err)
	}
	return &order, nil
}

// ListOrders returns orders matching the filter
func (s *MongoStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.PointsCredited != nil {
		query["pointsCredited"] = *filter.PointsCredited
	}

	out, err := findAll[models.Order](ctx, s.col(colOrders), query)
	if err != nil {
		return nil, fmt.Errorf("mongo: list orders: %w", err)
	}
	return out, nil
}

// UpdateOrderStatus sets an order's status
func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col(colOrders).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}}, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: update order: %w", err)
	}
	return &order, nil
}

// MarkPointsCredited flags an order as credited
func (s *MongoStore) MarkPointsCredited(ctx context.Context, id string) error {
	res, err := s.col(colOrders).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"pointsCredited": true}})
	if err != nil {
		return fmt.Errorf("mongo: mark points credited: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Ping checks the primary is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
