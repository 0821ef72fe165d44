package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, "test-secret", time.Hour, log), store
}

func TestService_SignupValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		req     models.SignupRequest
		wantErr error
	}{
		{"bad email", models.SignupRequest{Email: "nope", Password: "secret1", Role: models.RoleCustomer}, ErrInvalidEmail},
		{"short password", models.SignupRequest{Email: "a@b.com", Password: "123", Role: models.RoleCustomer}, ErrWeakPassword},
		{"unknown role", models.SignupRequest{Email: "a@b.com", Password: "secret1", Role: "admin"}, ErrInvalidRole},
		{"owner without restaurant", models.SignupRequest{Email: "a@b.com", Password: "secret1", Role: models.RoleOwner}, ErrRestaurantNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_SignupOwnerCreatesRestaurant(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	session, err := svc.Signup(ctx, models.SignupRequest{
		Email:          "chef@example.com",
		Password:       "secret1",
		Role:           models.RoleOwner,
		RestaurantName: "Luigi's",
	})
	require.NoError(t, err)
	assert.Equal(t, RouteHome, session.Redirect)

	profile, err := store.GetUser(ctx, session.UID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, profile.Role)
	assert.Equal(t, int64(0), profile.LoyaltyPoints)
	assert.Equal(t, "Luigi's", profile.RestaurantName)

	restaurant, err := store.GetRestaurant(ctx, session.UID)
	require.NoError(t, err)
	assert.Equal(t, "Luigi's", restaurant.RestaurantName)

	_, err = svc.Signup(ctx, models.SignupRequest{Email: "chef@example.com", Password: "secret2", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestService_LoginRedirects(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.Signup(ctx, models.SignupRequest{Email: "owner@example.com", Password: "secret1", Role: models.RoleOwner, RestaurantName: "R"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, models.SignupRequest{Email: "eater@example.com", Password: "secret1", Role: models.RoleCustomer})
	require.NoError(t, err)

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, store.CreateCredential(ctx, repository.Credential{Email: "ghost@example.com", UID: "ghost", PasswordHash: hash}))

	tests := []struct {
		email    string
		redirect string
	}{
		{"owner@example.com", RouteOwnerDashboard},
		{"eater@example.com", RouteCustomerOrdering},
		{"ghost@example.com", RouteHome},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			session, err := svc.Login(ctx, models.LoginRequest{Email: tt.email, Password: "secret1"})
			require.NoError(t, err)
			assert.Equal(t, tt.redirect, session.Redirect)
		})
	}

	_, err = svc.Login(ctx, models.LoginRequest{Email: "eater@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "missing@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_ValidateAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	session, err := svc.Signup(ctx, models.SignupRequest{Email: "a@example.com", Password: "secret1", Role: models.RoleCustomer})
	require.NoError(t, err)

	claims, err := svc.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UID, claims.UID)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, session.SessionID, claims.SessionID)

	var dropped string
	svc.OnLogout(func(id string) { dropped = id })
	svc.Logout(claims)
	assert.Equal(t, session.SessionID, dropped)

	_, err = svc.Validate(session.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	_, err = svc.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	session, err := svc.Signup(ctx, models.SignupRequest{Email: "a@example.com", Password: "secret1", Role: models.RoleCustomer})
	require.NoError(t, err)
	claims, err := svc.Validate(session.Token)
	require.NoError(t, err)
	svc.Logout(claims)

	now = now.Add(2 * time.Hour)
	_, err = svc.Validate(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, svc.PruneRevoked())
}
