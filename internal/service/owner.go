package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/food-ordering/internal/events"
	"github.com/Lixing-Zhang/food-ordering/internal/live"
	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/money"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// OrderScope decides which orders an owner sees
type OrderScope string

const (
	// ScopeAll shows every order to every owner
	ScopeAll OrderScope = "all"
	// ScopeRestaurant shows only orders containing the owner's items
	ScopeRestaurant OrderScope = "restaurant"
)

// ParseOrderScope maps a config value to a scope
func ParseOrderScope(v string) (OrderScope, error) {
	switch OrderScope(v) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeRestaurant:
		return ScopeRestaurant, nil
	default:
		return "", fmt.Errorf("unknown owner order scope %q", v)
	}
}

// OwnerService drives the owner dashboard
type OwnerService struct {
	orders    repository.OrderRepository
	broker    *live.Broker
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	scope     OrderScope
	now       func() time.Time
}

// NewOwnerService creates a new owner service
func NewOwnerService(orders repository.OrderRepository, broker *live.Broker, publisher events.Publisher, m *metrics.Metrics, log *slog.Logger, scope OrderScope) *OwnerService {
	return &OwnerService{
		orders:    orders,
		broker:    broker,
		publisher: publisher,
		metrics:   m,
		log:       log,
		scope:     scope,
		now:       time.Now,
	}
}

func (s *OwnerService) visibleTo(ownerID string) func(models.Order) bool {
	if s.scope != ScopeRestaurant {
		return nil
	}
	return func(o models.Order) bool {
		return o.HasRestaurant(ownerID)
	}
}

// Dashboard returns the current dashboard for the owner
func (s *OwnerService) Dashboard(ctx context.Context, ownerID string) (models.Dashboard, error) {
	orders, err := s.orders.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		return models.Dashboard{}, err
	}

	if match := s.visibleTo(ownerID); match != nil {
		scoped := orders[:0:0]
		for _, o := range orders {
			if match(o) {
				scoped = append(scoped, o)
			}
		}
		orders = scoped
	}
	return s.BuildDashboard(orders), nil
}

// Watch subscribes to every order visible to the owner. Feed each snapshot
// to BuildDashboard.
func (s *OwnerService) Watch(ctx context.Context, ownerID string) (*live.Subscription, error) {
	return s.broker.Subscribe(ctx, live.Query{Match: s.visibleTo(ownerID)})
}

// BuildDashboard keeps orders that are not ready and sums earnings for
// today and for the current month in local time. Earnings include ready
// orders.
func (s *OwnerService) BuildDashboard(orders []models.Order) models.Dashboard {
	now := s.now()
	loc := now.Location()
	y, m, d := now.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	pending := make([]models.Order, 0)
	daily, monthly := decimal.Zero, decimal.Zero

	for _, o := range orders {
		if o.Status != models.OrderStatusReady {
			pending = append(pending, o)
		}

		total, err := money.Parse(o.Total)
		if err != nil {
			s.log.Warn("order total is not a decimal", "order_id", o.ID, "total", o.Total)
			continue
		}

		ts := o.Timestamp.In(loc)
		if oy, om, od := ts.Date(); oy == y && om == m && od == d {
			daily = daily.Add(total)
		}
		if !ts.Before(monthStart) {
			monthly = monthly.Add(total)
		}
	}

	return models.Dashboard{
		Pending:         pending,
		DailyEarnings:   money.Format(daily),
		MonthlyEarnings: money.Format(monthly),
	}
}

// MarkReady moves an order to ready. With restaurant scope an owner can
// only touch orders containing their items.
func (s *OwnerService) MarkReady(ctx context.Context, ownerID, orderID string) (*models.Order, error) {
	if match := s.visibleTo(ownerID); match != nil {
		existing, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !match(*existing) {
			return nil, repository.ErrOrderNotFound
		}
	}

	order, err := s.orders.UpdateOrderStatus(ctx, orderID, models.OrderStatusReady)
	if err != nil {
		s.log.Error("failed to mark order ready", "order_id", orderID, "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.metrics.OrdersReady.Inc()
	s.log.Info("order marked ready", "order_id", orderID, "owner_id", ownerID)

	if err := s.publisher.Publish(ctx, events.NewOrderEvent(events.OrderReady, *order, s.now())); err != nil {
		s.log.Error("failed to publish order event", "order_id", orderID, "error", err)
	}
	s.broker.Publish(ctx)
	return order, nil
}
