// Package auth is the identity provider: account creation, sign-in,
// sign-out and token validation. Sessions are HS256 tokens carrying the
// user's uid, role and a session id that keys the session's cart.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

const minPasswordLength = 6

var (
	ErrInvalidEmail           = errors.New("a valid email is required")
	ErrWeakPassword           = errors.New("password must be at least 6 characters")
	ErrInvalidRole            = errors.New("role must be customer or owner")
	ErrRestaurantNameRequired = errors.New("restaurant name is required for owners")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrSessionRevoked         = errors.New("session has been signed out")
)

// Landing routes returned with a session
const (
	RouteHome             = "/"
	RouteOwnerDashboard   = "/owner-dashboard"
	RouteCustomerOrdering = "/customer-ordering"
)

// Store is the persistence the identity provider needs
type Store interface {
	repository.CredentialRepository
	repository.UserRepository
	repository.RestaurantRepository
}

// Service issues and validates sessions
type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	revoked  map[string]time.Time
	onLogout []func(sessionID string)
}

// NewService creates the identity provider
func NewService(store Store, secret string, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		secret:  []byte(secret),
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// OnLogout registers fn to run with the session id of every signed-out session
func (s *Service) OnLogout(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// RedirectFor returns the landing route for a role
func RedirectFor(role models.Role) string {
	switch role {
	case models.RoleOwner:
		return RouteOwnerDashboard
	case models.RoleCustomer:
		return RouteCustomerOrdering
	default:
		return RouteHome
	}
}

func validateSignup(req models.SignupRequest) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return ErrWeakPassword
	}
	if !req.Role.Valid() {
		return ErrInvalidRole
	}
	if req.Role == models.RoleOwner && strings.TrimSpace(req.RestaurantName) == "" {
		return ErrRestaurantNameRequired
	}
	return nil
}

// Signup creates the account, its profile and, for owners, the restaurant
// document keyed by the new uid.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := strings.TrimSpace(req.Email)
	uid := uuid.New().String()
	if err := s.store.CreateCredential(ctx, repository.Credential{Email: email, UID: uid, PasswordHash: hash}); err != nil {
		return nil, err
	}

	profile := models.UserProfile{
		UID:           uid,
		Email:         email,
		Role:          req.Role,
		LoyaltyPoints: 0,
	}
	if req.Role == models.RoleOwner {
		profile.RestaurantName = strings.TrimSpace(req.RestaurantName)
	}
	if err := s.store.CreateUser(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if req.Role == models.RoleOwner {
		restaurant := models.Restaurant{ID: uid, RestaurantName: profile.RestaurantName}
		if err := s.store.CreateRestaurant(ctx, restaurant); err != nil {
			return nil, fmt.Errorf("create restaurant: %w", err)
		}
	}

	s.log.Info("account created", "uid", uid, "role", req.Role)
	return s.newSession(uid, req.Role, RouteHome)
}

// Login verifies the password and starts a new session. The role and
// landing route come from the stored profile; a missing profile lands on
// the home route.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	cred, err := s.store.GetCredential(ctx, req.Email)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(cred.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	var role models.Role
	profile, err := s.store.GetUser(ctx, cred.UID)
	switch {
	case err == nil:
		role = profile.Role
	case errors.Is(err, repository.ErrUserNotFound):
		s.log.Warn("signed in without a profile", "uid", cred.UID)
	default:
		return nil, err
	}

	return s.newSession(cred.UID, role, RedirectFor(role))
}

func (s *Service) newSession(uid string, role models.Role, redirect string) (*models.Session, error) {
	sessionID := uuid.New().String()
	token, err := s.signToken(uid, role, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.Session{
		Token:     token,
		UID:       uid,
		Role:      role,
		SessionID: sessionID,
		Redirect:  redirect,
	}, nil
}

// Logout revokes the session and notifies the logout hooks
func (s *Service) Logout(claims *Claims) {
	s.mu.Lock()
	s.revoked[claims.SessionID] = expiryOf(claims)
	hooks := append([]func(string){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(claims.SessionID)
	}
	s.log.Info("signed out", "uid", claims.UID)
}

// Validate parses a bearer token and rejects revoked sessions
func (s *Service) Validate(token string) (*Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.SessionID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// PruneRevoked forgets revoked sessions whose tokens have expired anyway
func (s *Service) PruneRevoked() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, exp := range s.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(s.revoked, id)
			pruned++
		}
	}
	return pruned
}
