package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/cache"
	"github.com/Lixing-Zhang/food-ordering/internal/events"
	"github.com/Lixing-Zhang/food-ordering/internal/live"
	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	log      *slog.Logger
	metrics  *metrics.Metrics
	events   *events.Recorder
	broker   *live.Broker
	catalog  *CatalogService
	reviews  *ReviewService
	checkout *CheckoutService
	history  *HistoryService
	owner    *OwnerService
	menu     *MenuService
	profile  *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   repository.NewMemoryStore(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.New(),
		events:  &events.Recorder{},
	}
	f.broker = live.NewBroker(f.store, f.log)
	f.catalog = NewCatalogService(f.store, cache.NewMemory(time.Minute), f.log)
	f.reviews = NewReviewService(f.store, f.catalog, f.metrics, f.log, 100)
	f.checkout = NewCheckoutService(f.store, f.broker, f.events, f.metrics, f.log)
	f.history = NewHistoryService(f.store, f.broker)
	f.owner = NewOwnerService(f.store, f.broker, f.events, f.metrics, f.log, ScopeAll)
	f.menu = NewMenuService(f.store, f.catalog, f.log)
	f.profile = NewProfileService(f.store, f.metrics, f.log)
	return f
}

func (f *fixture) customer(t *testing.T, uid string, points int64) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), models.UserProfile{
		UID:           uid,
		Email:         uid + "@example.com",
		Role:          models.RoleCustomer,
		LoyaltyPoints: points,
	}))
}

func (f *fixture) restaurant(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.store.CreateRestaurant(context.Background(), models.Restaurant{ID: id, RestaurantName: name}))
}

func ts(t time.Time) *time.Time {
	return &t
}
