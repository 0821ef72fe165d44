package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/cache"
	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

func newSeeder(store *repository.MemoryStore) (*Seeder, *auth.Service) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.NewService(store, "test-secret", time.Hour, log)
	catalog := service.NewCatalogService(store, cache.Noop{}, log)
	menus := service.NewMenuService(store, catalog, log)
	profiles := service.NewProfileService(store, metrics.New(), log)
	return New(authSvc, menus, profiles, log), authSvc
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seeder, authSvc := newSeeder(store)

	opts := Options{Owners: 2, ItemsPerRestaurant: 3, Customers: 2, Password: "password", Seed: 7}
	summary, err := seeder.Run(ctx, opts)
	require.NoError(t, err)

	assert.Len(t, summary.Accounts, 4)
	assert.Equal(t, 6, summary.MenuItems)

	restaurants, err := store.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 2)

	for _, acc := range summary.Accounts {
		switch acc.Role {
		case models.RoleOwner:
			items, err := store.ListMenuItems(ctx, acc.UID)
			require.NoError(t, err)
			assert.Len(t, items, 3)
		case models.RoleCustomer:
			profile, err := store.GetUser(ctx, acc.UID)
			require.NoError(t, err)
			assert.NotEmpty(t, profile.Name)
			assert.NotEmpty(t, profile.Address)
			assert.Zero(t, profile.LoyaltyPoints)
		}
	}

	session, err := authSvc.Login(ctx, models.LoginRequest{Email: "customer1@foodorder.test", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, session.Role)
}

func TestRun_Deterministic(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()

	names := func() []string {
		store := repository.NewMemoryStore()
		seeder, _ := newSeeder(store)
		_, err := seeder.Run(ctx, opts)
		require.NoError(t, err)

		restaurants, err := store.ListRestaurants(ctx)
		require.NoError(t, err)
		out := make([]string, 0, len(restaurants))
		for _, r := range restaurants {
			out = append(out, r.RestaurantName)
		}
		return out
	}

	assert.ElementsMatch(t, names(), names())
}

func TestRun_SecondRunFails(t *testing.T) {
	ctx := context.Background()
	seeder, _ := newSeeder(repository.NewMemoryStore())
	opts := Options{Owners: 1, Customers: 0, Password: "password", Seed: 1}

	_, err := seeder.Run(ctx, opts)
	require.NoError(t, err)

	_, err = seeder.Run(ctx, opts)
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}
