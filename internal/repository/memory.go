package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

// MemoryStore keeps every collection in process memory. It is the default
// backend for development and the one used by tests.
type MemoryStore struct {
	mu sync.RWMutex

	credentials map[string]Credential
	users       map[string]models.UserProfile
	restaurants map[string]models.Restaurant
	restOrder   []string
	menus       map[string][]models.MenuItem
	reviews     map[string][]models.Review
	reviewed    map[string]bool
	orders      []models.Order
	orderIndex  map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]Credential),
		users:       make(map[string]models.UserProfile),
		restaurants: make(map[string]models.Restaurant),
		menus:       make(map[string][]models.MenuItem),
		reviews:     make(map[string][]models.Review),
		reviewed:    make(map[string]bool),
		orderIndex:  make(map[string]int),
	}
}

func reviewKey(restaurantID, userID string) string {
	return restaurantID + "/" + userID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateCredential stores a new account credential
func (s *MemoryStore) CreateCredential(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(cred.Email)
	if _, exists := s.credentials[email]; exists {
		return ErrEmailTaken
	}
	cred.Email = email
	s.credentials[email] = cred
	return nil
}

// GetCredential looks an account up by email
func (s *MemoryStore) GetCredential(ctx context.Context, email string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[normalizeEmail(email)]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

// CreateUser writes users/{uid}
func (s *MemoryStore) CreateUser(ctx context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[profile.UID] = profile
	return nil
}

// GetUser reads users/{uid}
func (s *MemoryStore) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &profile, nil
}

// UpdateProfile applies the non-nil editable fields
func (s *MemoryStore) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	if update.Name != nil {
		profile.Name = *update.Name
	}
	if update.Address != nil {
		profile.Address = *update.Address
	}
	if update.PhoneNumber != nil {
		profile.PhoneNumber = *update.PhoneNumber
	}
	s.users[uid] = profile
	return &profile, nil
}

// AdjustLoyaltyPoints changes the balance under the store lock
func (s *MemoryStore) AdjustLoyaltyPoints(ctx context.Context, uid string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[uid]
	if !ok {
		return 0, ErrUserNotFound
	}
	if profile.LoyaltyPoints+delta < 0 {
		return profile.LoyaltyPoints, ErrInsufficientPoints
	}
	profile.LoyaltyPoints += delta
	s.users[uid] = profile
	return profile.LoyaltyPoints, nil
}

// CreateRestaurant writes restaurants/{id}
func (s *MemoryStore) CreateRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.restaurants[restaurant.ID]; !exists {
		s.restOrder = append(s.restOrder, restaurant.ID)
	}
	s.restaurants[restaurant.ID] = restaurant
	return nil
}

// GetRestaurant reads restaurants/{id}
func (s *MemoryStore) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	restaurant, ok := s.restaurants[id]
	if !ok {
		return nil, ErrRestaurantNotFound
	}
	return &restaurant, nil
}

// ListRestaurants returns restaurants in creation order
func (s *MemoryStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Restaurant, 0, len(s.restOrder))
	for _, id := range s.restOrder {
		out = append(out, s.restaurants[id])
	}
	return out, nil
}

// ListMenuItems returns a restaurant's menu
func (s *MemoryStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.menus[restaurantID]
	out := make([]models.MenuItem, len(items))
	copy(out, items)
	return out, nil
}

// GetMenuItem reads restaurants/{id}/menu/{itemId}
func (s *MemoryStore) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.menus[restaurantID] {
		if item.ID == itemID {
			found := item
			return &found, nil
		}
	}
	return nil, ErrMenuItemNotFound
}

// AddMenuItem appends an item and assigns its id
func (s *MemoryStore) AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = newID()
	}
	s.menus[item.RestaurantID] = append(s.menus[item.RestaurantID], item)
	return item, nil
}

// DeleteMenuItem removes an item from a restaurant's menu
func (s *MemoryStore) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.menus[restaurantID]
	for i, item := range items {
		if item.ID == itemID {
			s.menus[restaurantID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrMenuItemNotFound
}

// ListReviews returns a restaurant's reviews in write order
func (s *MemoryStore) ListReviews(ctx context.Context, restaurantID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := s.reviews[restaurantID]
	out := make([]models.Review, len(reviews))
	copy(out, reviews)
	return out, nil
}

// HasReview reports whether userID already reviewed restaurantID
func (s *MemoryStore) HasReview(ctx context.Context, restaurantID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewed[reviewKey(restaurantID, userID)], nil
}

// AddReview inserts the review unless the (restaurant, user) key is taken
func (s *MemoryStore) AddReview(ctx context.Context, review models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey(review.RestaurantID, review.UserID)
	if s.reviewed[key] {
		return models.Review{}, ErrReviewExists
	}
	if review.ID == "" {
		review.ID = newID()
	}
	s.reviewed[key] = true
	s.reviews[review.RestaurantID] = append(s.reviews[review.RestaurantID], review)
	return review, nil
}

// CreateOrder appends an order and assigns its id
func (s *MemoryStore) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = newID()
	}
	order.Items = append([]models.CartItem(nil), order.Items...)
	s.orderIndex[order.ID] = len(s.orders)
	s.orders = append(s.orders, order)
	return order, nil
}

// GetOrder reads orders/{id}
func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.orderIndex[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := s.orders[idx]
	return &order, nil
}

// ListOrders returns matching orders in creation order
func (s *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, order := range s.orders {
		if filter.Matches(order) {
			out = append(out, order)
		}
	}
	return out, nil
}

// UpdateOrderStatus sets an order's status
func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.orderIndex[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	s.orders[idx].Status = status
	order := s.orders[idx]
	return &order, nil
}

// MarkPointsCredited flags an order whose loyalty points were applied
func (s *MemoryStore) MarkPointsCredited(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.orderIndex[id]
	if !ok {
		return ErrOrderNotFound
	}
	s.orders[idx].PointsCredited = true
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
