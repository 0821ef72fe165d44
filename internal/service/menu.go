package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/money"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// MenuService lets an owner manage the menu of the restaurant keyed by
// their uid
type MenuService struct {
	menu    repository.MenuRepository
	catalog *CatalogService
	log     *slog.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(menu repository.MenuRepository, catalog *CatalogService, log *slog.Logger) *MenuService {
	return &MenuService{
		menu:    menu,
		catalog: catalog,
		log:     log,
	}
}

// List returns the owner's menu
func (s *MenuService) List(ctx context.Context, ownerID string) ([]models.MenuItem, error) {
	return s.menu.ListMenuItems(ctx, ownerID)
}

// Add validates and stores a menu item; the price is normalized to two decimals
func (s *MenuService) Add(ctx context.Context, ownerID string, req models.MenuItemRequest) (*models.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMenuItemNameRequired
	}
	if strings.TrimSpace(req.Price) == "" {
		return nil, ErrMenuItemPriceRequired
	}
	price, err := money.Normalize(req.Price)
	if errors.Is(err, money.ErrInvalidAmount) {
		return nil, ErrInvalidPrice
	}
	if err != nil {
		return nil, err
	}

	item, err := s.menu.AddMenuItem(ctx, models.MenuItem{
		RestaurantID: ownerID,
		Name:         name,
		Price:        price,
	})
	if err != nil {
		s.log.Error("failed to add menu item", "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.catalog.Invalidate(ctx, ownerID)
	s.log.Info("menu item added", "owner_id", ownerID, "item_id", item.ID)
	return &item, nil
}

// Delete removes a menu item from the owner's restaurant
func (s *MenuService) Delete(ctx context.Context, ownerID, itemID string) error {
	if err := s.menu.DeleteMenuItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx, ownerID)
	s.log.Info("menu item deleted", "owner_id", ownerID, "item_id", itemID)
	return nil
}
