package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Lixing-Zhang/food-ordering/internal/cart"
	"github.com/Lixing-Zhang/food-ordering/internal/events"
	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/money"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// CheckoutStore is what placing orders needs
type CheckoutStore interface {
	repository.OrderRepository
	repository.UserRepository
}

// OrderFeed republishes order snapshots to live subscribers
type OrderFeed interface {
	Publish(ctx context.Context)
}

// CheckoutService places orders from a cart
type CheckoutService struct {
	store     CheckoutStore
	feed      OrderFeed
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, feed OrderFeed, publisher events.Publisher, m *metrics.Metrics, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:     store,
		feed:      feed,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidatePayment checks the selected method and the fields it requires.
// No payment is actually taken.
func ValidatePayment(req models.CheckoutRequest) error {
	switch req.PaymentMethod {
	case "":
		return ErrPaymentMethodRequired
	case models.PaymentUPI:
		return nil
	case models.PaymentCard:
		if blank(req.CardNumber) || blank(req.ExpiryDate) || blank(req.CVV) {
			return ErrCardDetailsRequired
		}
		return nil
	case models.PaymentNetBanking:
		if blank(req.BankName) || blank(req.AccountNumber) || blank(req.Password) {
			return ErrBankDetailsRequired
		}
		return nil
	default:
		return ErrUnknownPaymentMethod
	}
}

// Checkout writes a pending order for the cart contents, credits
// floor(total) loyalty points and removes the ordered items from the cart.
// The order is not rolled back when the credit fails; it stays uncredited
// for ReconcileLoyalty to pick up.
func (s *CheckoutService) Checkout(ctx context.Context, uid string, c *cart.Cart, req models.CheckoutRequest) (*models.OrderConfirmation, error) {
	if err := ValidatePayment(req); err != nil {
		s.metrics.CheckoutFailures.WithLabelValues("payment").Inc()
		return nil, err
	}

	items := c.Items()
	if len(items) == 0 {
		s.metrics.CheckoutFailures.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	prices := make([]string, len(items))
	for i, item := range items {
		prices[i] = item.Price
	}
	total, err := money.Sum(prices...)
	if err != nil {
		s.metrics.CheckoutFailures.WithLabelValues("price").Inc()
		return nil, err
	}

	order, err := s.store.CreateOrder(ctx, models.Order{
		UserID:        uid,
		Items:         items,
		Total:         money.Format(total),
		Timestamp:     s.now().UTC(),
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		s.metrics.CheckoutFailures.WithLabelValues("store").Inc()
		s.log.Error("failed to place order", "user_id", uid, "error", err)
		return nil, err
	}

	s.metrics.OrdersPlaced.Inc()
	s.log.Info("order placed", "order_id", order.ID, "user_id", uid, "total", order.Total, "items_count", len(items))

	pointsEarned := s.credit(ctx, order)

	c.Discard(items)

	if err := s.publisher.Publish(ctx, events.NewOrderEvent(events.OrderPlaced, order, s.now())); err != nil {
		s.log.Error("failed to publish order event", "order_id", order.ID, "error", err)
	}
	s.feed.Publish(ctx)

	return &models.OrderConfirmation{
		OrderID:       order.ID,
		Items:         order.Items,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PointsEarned:  pointsEarned,
	}, nil
}

// credit adds the order's points to the user's balance and flags the
// order. A user without a profile earns nothing.
func (s *CheckoutService) credit(ctx context.Context, order models.Order) int64 {
	total, err := money.Parse(order.Total)
	if err != nil {
		s.log.Error("order has an unreadable total", "order_id", order.ID, "total", order.Total, "error", err)
		return 0
	}
	points := money.WholeUnits(total)

	_, err = s.store.AdjustLoyaltyPoints(ctx, order.UserID, points)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		s.log.Warn("no profile to credit loyalty points", "order_id", order.ID, "user_id", order.UserID)
		points = 0
	case err != nil:
		s.log.Error("failed to credit loyalty points", "order_id", order.ID, "user_id", order.UserID, "points", points, "error", err)
		return 0
	default:
		s.metrics.LoyaltyPointsCredited.Add(float64(points))
	}

	if err := s.store.MarkPointsCredited(ctx, order.ID); err != nil {
		s.log.Error("failed to mark order credited", "order_id", order.ID, "error", err)
	}
	return points
}

// ReconcileLoyalty credits every order whose points were never credited
// and returns how many orders it settled.
func (s *CheckoutService) ReconcileLoyalty(ctx context.Context) (int, error) {
	uncredited := false
	orders, err := s.store.ListOrders(ctx, repository.OrderFilter{PointsCredited: &uncredited})
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		total, err := money.Parse(order.Total)
		if err != nil {
			s.log.Warn("skipping order with unreadable total", "order_id", order.ID, "total", order.Total)
			continue
		}
		points := money.WholeUnits(total)

		if _, err := s.store.AdjustLoyaltyPoints(ctx, order.UserID, points); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				s.log.Warn("skipping order without a profile", "order_id", order.ID, "user_id", order.UserID)
				continue
			}
			return settled, err
		}
		if err := s.store.MarkPointsCredited(ctx, order.ID); err != nil {
			return settled, err
		}

		s.metrics.LoyaltyPointsCredited.Add(float64(points))
		s.log.Info("loyalty points reconciled", "order_id", order.ID, "user_id", order.UserID, "points", points)
		settled++
	}
	return settled, nil
}
