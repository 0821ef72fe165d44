// Package repository is the boundary to the document store. Every backend
// enforces review uniqueness per (restaurant, user) and applies loyalty
// point changes atomically, so callers never read-then-write balances.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrReviewExists       = errors.New("review already exists for this user and restaurant")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// Credential is the identity provider's record for an account
type Credential struct {
	Email        string
	UID          string
	PasswordHash string
}

// OrderFilter narrows ListOrders. Zero value matches every order.
type OrderFilter struct {
	UserID         string
	PointsCredited *bool
}

// Matches reports whether o satisfies the filter
func (f OrderFilter) Matches(o models.Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.PointsCredited != nil && o.PointsCredited != *f.PointsCredited {
		return false
	}
	return true
}

type CredentialRepository interface {
	CreateCredential(ctx context.Context, cred Credential) error
	GetCredential(ctx context.Context, email string) (*Credential, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, profile models.UserProfile) error
	GetUser(ctx context.Context, uid string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error)
	// AdjustLoyaltyPoints adds delta to the balance in one atomic step and
	// returns the new balance. A change that would go below zero fails with
	// ErrInsufficientPoints and leaves the balance untouched.
	AdjustLoyaltyPoints(ctx context.Context, uid string, delta int64) (int64, error)
}

type RestaurantRepository interface {
	CreateRestaurant(ctx context.Context, restaurant models.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
}

type MenuRepository interface {
	ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error)
	AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error
}

type ReviewRepository interface {
	ListReviews(ctx context.Context, restaurantID string) ([]models.Review, error)
	HasReview(ctx context.Context, restaurantID, userID string) (bool, error)
	// AddReview fails with ErrReviewExists when the user already reviewed the restaurant.
	AddReview(ctx context.Context, review models.Review) (models.Review, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	MarkPointsCredited(ctx context.Context, id string) error
}

// Store bundles every collection a backend provides
type Store interface {
	CredentialRepository
	UserRepository
	RestaurantRepository
	MenuRepository
	ReviewRepository
	OrderRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// newID generates a document id
func newID() string {
	return uuid.New().String()
}
