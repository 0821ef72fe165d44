package service

import (
	"context"
	"sort"

	"github.com/Lixing-Zhang/food-ordering/internal/live"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// HistoryService reads a customer's orders
type HistoryService struct {
	orders repository.OrderRepository
	broker *live.Broker
}

// NewHistoryService creates a new history service
func NewHistoryService(orders repository.OrderRepository, broker *live.Broker) *HistoryService {
	return &HistoryService{orders: orders, broker: broker}
}

// List returns the user's orders, newest first
func (s *HistoryService) List(ctx context.Context, uid string) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, repository.OrderFilter{UserID: uid})
	if err != nil {
		return nil, err
	}
	return NewestFirst(orders), nil
}

// Watch subscribes to the user's orders. Snapshots arrive unsorted; pass
// them through NewestFirst before rendering.
func (s *HistoryService) Watch(ctx context.Context, uid string) (*live.Subscription, error) {
	return s.broker.Subscribe(ctx, live.Query{Filter: repository.OrderFilter{UserID: uid}})
}

// NewestFirst sorts orders by timestamp descending in place and returns them
func NewestFirst(orders []models.Order) []models.Order {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	return orders
}
