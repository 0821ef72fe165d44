package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*MongoStore)(nil)
)

// backends returns a constructor per backend available in this environment.
// MongoDB runs only when MONGO_TEST_URI is set.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	out := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
			s, err := NewSQLStore("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			return s
		},
	}

	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		out["mongo"] = func(t *testing.T) Store {
			ctx := context.Background()
			database := fmt.Sprintf("foodorder_test_%d", time.Now().UnixNano())
			s, err := NewMongoStore(ctx, uri, database)
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = s.db.Drop(ctx)
				_ = s.Close(ctx)
			})
			return s
		}
	}
	return out
}

// forEachBackend runs fn as a subtest against a fresh store of every backend
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func TestStore_Credentials(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.CreateCredential(ctx, Credential{Email: "A@Example.com", UID: "u1", PasswordHash: "h"}))
		assert.ErrorIs(t, s.CreateCredential(ctx, Credential{Email: "a@example.com ", UID: "u2"}), ErrEmailTaken)

		cred, err := s.GetCredential(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", cred.UID)
		assert.Equal(t, "h", cred.PasswordHash)

		_, err = s.GetCredential(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})
}

func TestStore_Profile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, models.UserProfile{
			UID:           "u1",
			Email:         "u1@example.com",
			Role:          models.RoleCustomer,
			LoyaltyPoints: 3,
		}))

		name := "Ada"
		updated, err := s.UpdateProfile(ctx, "u1", models.ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ada", updated.Name)
		assert.Equal(t, "u1@example.com", updated.Email)
		assert.Equal(t, models.RoleCustomer, updated.Role)
		assert.Equal(t, int64(3), updated.LoyaltyPoints)

		_, err = s.GetUser(ctx, "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStore_AdjustLoyaltyPoints(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, models.UserProfile{UID: "u1", LoyaltyPoints: 10}))

		balance, err := s.AdjustLoyaltyPoints(ctx, "u1", 32)
		require.NoError(t, err)
		assert.Equal(t, int64(42), balance)

		balance, err = s.AdjustLoyaltyPoints(ctx, "u1", -50)
		assert.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Equal(t, int64(42), balance)

		profile, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(42), profile.LoyaltyPoints, "a rejected debit leaves the balance unchanged")

		balance, err = s.AdjustLoyaltyPoints(ctx, "u1", -42)
		require.NoError(t, err)
		assert.Zero(t, balance)

		_, err = s.AdjustLoyaltyPoints(ctx, "ghost", 1)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStore_ConcurrentCreditsAreNotLost(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, models.UserProfile{UID: "u1"}))

		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AdjustLoyaltyPoints(ctx, "u1", 2)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		profile, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), profile.LoyaltyPoints)
	})
}

func TestStore_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, models.UserProfile{UID: "u1", LoyaltyPoints: 10}))

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.AdjustLoyaltyPoints(ctx, "u1", -3); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, ErrInsufficientPoints)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, succeeded)
		profile, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), profile.LoyaltyPoints)
	})
}

func TestStore_ReviewUniqueness(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AddReview(ctx, models.Review{RestaurantID: "r1", UserID: "u1", Rating: 5, Timestamp: &now})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrReviewExists)
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one concurrent submission may win")

		_, err := s.AddReview(ctx, models.Review{RestaurantID: "r1", UserID: "u1", Rating: 2})
		assert.ErrorIs(t, err, ErrReviewExists)

		has, err := s.HasReview(ctx, "r1", "u1")
		require.NoError(t, err)
		assert.True(t, has)

		_, err = s.AddReview(ctx, models.Review{RestaurantID: "r2", UserID: "u1", Rating: 3})
		assert.NoError(t, err, "the same user may review another restaurant")

		reviews, err := s.ListReviews(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		require.NotNil(t, reviews[0].Timestamp)
		assert.WithinDuration(t, now, *reviews[0].Timestamp, time.Millisecond)
	})
}

func TestStore_Menu(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateRestaurant(ctx, models.Restaurant{ID: "r1", RestaurantName: "Luigi's"}))

		restaurant, err := s.GetRestaurant(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Luigi's", restaurant.RestaurantName)
		_, err = s.GetRestaurant(ctx, "r9")
		assert.ErrorIs(t, err, ErrRestaurantNotFound)

		pizza, err := s.AddMenuItem(ctx, models.MenuItem{RestaurantID: "r1", Name: "Pizza", Price: "10.00"})
		require.NoError(t, err)
		require.NotEmpty(t, pizza.ID)
		_, err = s.AddMenuItem(ctx, models.MenuItem{RestaurantID: "r1", Name: "Soda", Price: "2.50"})
		require.NoError(t, err)

		got, err := s.GetMenuItem(ctx, "r1", pizza.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pizza", got.Name)
		assert.Equal(t, "10.00", got.Price)

		_, err = s.GetMenuItem(ctx, "r2", pizza.ID)
		assert.ErrorIs(t, err, ErrMenuItemNotFound)

		require.NoError(t, s.DeleteMenuItem(ctx, "r1", pizza.ID))
		assert.ErrorIs(t, s.DeleteMenuItem(ctx, "r1", pizza.ID), ErrMenuItemNotFound)

		items, err := s.ListMenuItems(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Soda", items[0].Name)
	})
}

func TestStore_Orders(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		placed := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
		items := []models.CartItem{
			{ID: "1", Name: "Pizza", Price: "10.00", RestaurantID: "r1"},
			{ID: "2", Name: "Soda", Price: "2.50", RestaurantID: "r1"},
		}

		o1, err := s.CreateOrder(ctx, models.Order{
			UserID:        "u1",
			Items:         items,
			Total:         "12.50",
			Timestamp:     placed,
			Status:        models.OrderStatusPending,
			PaymentMethod: models.PaymentUPI,
		})
		require.NoError(t, err)
		require.NotEmpty(t, o1.ID)
		_, err = s.CreateOrder(ctx, models.Order{UserID: "u2", Total: "5.00", Timestamp: placed.Add(time.Minute), Status: models.OrderStatusPending})
		require.NoError(t, err)

		got, err := s.GetOrder(ctx, o1.ID)
		require.NoError(t, err)
		assert.Equal(t, items, got.Items)
		assert.Equal(t, "12.50", got.Total)
		assert.Equal(t, models.PaymentUPI, got.PaymentMethod)
		assert.Equal(t, models.OrderStatusPending, got.Status)
		assert.True(t, placed.Equal(got.Timestamp), "timestamp %v, want %v", got.Timestamp, placed)
		assert.False(t, got.PointsCredited)

		_, err = s.GetOrder(ctx, "missing")
		assert.ErrorIs(t, err, ErrOrderNotFound)

		mine, err := s.ListOrders(ctx, OrderFilter{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, o1.ID, mine[0].ID)

		updated, err := s.UpdateOrderStatus(ctx, o1.ID, models.OrderStatusReady)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusReady, updated.Status)

		_, err = s.UpdateOrderStatus(ctx, "missing", models.OrderStatusReady)
		assert.ErrorIs(t, err, ErrOrderNotFound)

		require.NoError(t, s.MarkPointsCredited(ctx, o1.ID))
		assert.ErrorIs(t, s.MarkPointsCredited(ctx, "missing"), ErrOrderNotFound)

		uncredited, credited := false, true
		pending, err := s.ListOrders(ctx, OrderFilter{PointsCredited: &uncredited})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "u2", pending[0].UserID)

		done, err := s.ListOrders(ctx, OrderFilter{PointsCredited: &credited})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, o1.ID, done[0].ID)

		all, err := s.ListOrders(ctx, OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestStore_Ping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}
