package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/food-ordering/internal/cart"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// CartService resolves menu items into the session's cart
type CartService struct {
	carts *cart.Registry
	menu  repository.MenuRepository
	log   *slog.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts *cart.Registry, menu repository.MenuRepository, log *slog.Logger) *CartService {
	return &CartService{
		carts: carts,
		menu:  menu,
		log:   log,
	}
}

// Cart returns the session's cart
func (s *CartService) Cart(sessionID string) *cart.Cart {
	return s.carts.Get(sessionID)
}

// View returns the session's items and total
func (s *CartService) View(sessionID string) models.CartView {
	return s.carts.Get(sessionID).View()
}

// Add appends a snapshot of the menu item. Adding the same item twice
// yields two entries.
func (s *CartService) Add(ctx context.Context, sessionID string, req models.AddToCartRequest) (models.CartView, error) {
	restaurantID := strings.TrimSpace(req.RestaurantID)
	itemID := strings.TrimSpace(req.ItemID)
	if restaurantID == "" || itemID == "" {
		return models.CartView{}, ErrItemIDRequired
	}

	item, err := s.menu.GetMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		return models.CartView{}, err
	}

	c := s.carts.Get(sessionID)
	c.Add(item.CartItem())
	return c.View(), nil
}

// Remove drops the first entry with the item id
func (s *CartService) Remove(sessionID, itemID string) models.CartView {
	c := s.carts.Get(sessionID)
	c.Remove(itemID)
	return c.View()
}

// Clear empties the session's cart
func (s *CartService) Clear(sessionID string) models.CartView {
	c := s.carts.Get(sessionID)
	c.Clear()
	return c.View()
}

// Drop forgets the session's cart entirely
func (s *CartService) Drop(sessionID string) {
	s.carts.Drop(sessionID)
}
