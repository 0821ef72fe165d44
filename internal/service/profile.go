package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// ProfileService reads and edits profiles and redeems loyalty points
type ProfileService struct {
	users   repository.UserRepository
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(users repository.UserRepository, m *metrics.Metrics, log *slog.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		metrics: m,
		log:     log,
	}
}

// Get returns the profile. A user without a profile document gets an
// empty one rather than an error.
func (s *ProfileService) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	profile, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &models.UserProfile{UID: uid}, nil
	}
	return profile, err
}

// Update writes the editable fields verbatim. Email, role and points are
// not part of ProfileUpdate and cannot change here.
func (s *ProfileService) Update(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error) {
	profile, err := s.users.UpdateProfile(ctx, uid, update)
	if err != nil {
		s.log.Error("failed to update profile", "user_id", uid, "error", err)
		return nil, err
	}
	s.log.Info("profile updated", "user_id", uid)
	return profile, nil
}

// ParseRedeemAmount accepts a JSON integer or a string holding one. Zero,
// negative, fractional and non-numeric amounts are rejected.
func ParseRedeemAmount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, ErrInvalidRedeemAmount
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidRedeemAmount
		}
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		return 0, ErrInvalidRedeemAmount
	}
	return amount, nil
}

// Redeem debits amount points in one atomic step and returns the new
// balance. The balance is unchanged when it is too small.
func (s *ProfileService) Redeem(ctx context.Context, uid string, raw json.RawMessage) (int64, error) {
	amount, err := ParseRedeemAmount(raw)
	if err != nil {
		return 0, err
	}

	balance, err := s.users.AdjustLoyaltyPoints(ctx, uid, -amount)
	if errors.Is(err, repository.ErrInsufficientPoints) {
		return balance, ErrNotEnoughPoints
	}
	if err != nil {
		s.log.Error("failed to redeem loyalty points", "user_id", uid, "amount", amount, "error", err)
		return 0, err
	}

	s.metrics.LoyaltyPointsRedeemed.Add(float64(amount))
	s.log.Info("loyalty points redeemed", "user_id", uid, "amount", amount, "balance", balance)
	return balance, nil
}
