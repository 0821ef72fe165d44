package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// ReviewStore is what submitting reviews needs
type ReviewStore interface {
	repository.RestaurantRepository
	repository.ReviewRepository
}

// ReviewService accepts at most one review per user per restaurant. The
// store enforces the rule; a bloom filter of known (restaurant, user)
// pairs lets first-time reviewers skip the existence query.
type ReviewService struct {
	store   ReviewStore
	catalog *CatalogService
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewReviewService creates a review service sized for expectedReviews
func NewReviewService(store ReviewStore, catalog *CatalogService, m *metrics.Metrics, log *slog.Logger, expectedReviews uint) *ReviewService {
	if expectedReviews == 0 {
		expectedReviews = 10000
	}
	return &ReviewService{
		store:   store,
		catalog: catalog,
		metrics: m,
		log:     log,
		now:     time.Now,
		filter:  bloom.NewWithEstimates(expectedReviews, 0.01),
	}
}

func pairKey(restaurantID, userID string) []byte {
	return []byte(restaurantID + "\x00" + userID)
}

// Warm loads every stored review into the filter
func (s *ReviewService) Warm(ctx context.Context) error {
	restaurants, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return fmt.Errorf("warm review filter: %w", err)
	}

	loaded := 0
	for _, r := range restaurants {
		reviews, err := s.store.ListReviews(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("warm review filter: %w", err)
		}
		s.mu.Lock()
		for _, rv := range reviews {
			s.filter.Add(pairKey(rv.RestaurantID, rv.UserID))
		}
		s.mu.Unlock()
		loaded += len(reviews)
	}

	s.log.Info("review filter warmed", "restaurants", len(restaurants), "reviews", loaded)
	return nil
}

func (s *ReviewService) mayHaveReviewed(restaurantID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Test(pairKey(restaurantID, userID))
}

func (s *ReviewService) remember(restaurantID, userID string) {
	s.mu.Lock()
	s.filter.Add(pairKey(restaurantID, userID))
	s.mu.Unlock()
}

func validateRating(rating int) error {
	if rating == 0 {
		return ErrRatingRequired
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// Submit validates and writes a review stamped with the current time
func (s *ReviewService) Submit(ctx context.Context, restaurantID, userID string, req models.ReviewRequest) (*models.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		s.metrics.ReviewsSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if s.mayHaveReviewed(restaurantID, userID) {
		exists, err := s.store.HasReview(ctx, restaurantID, userID)
		if err != nil {
			s.log.Error("failed to check existing review", "restaurant_id", restaurantID, "user_id", userID, "error", err)
			return nil, err
		}
		if exists {
			s.metrics.ReviewsSubmitted.WithLabelValues("duplicate").Inc()
			return nil, ErrAlreadyReviewed
		}
	}

	now := s.now().UTC()
	review, err := s.store.AddReview(ctx, models.Review{
		RestaurantID: restaurantID,
		UserID:       userID,
		Rating:       req.Rating,
		Comment:      strings.TrimSpace(req.Comment),
		Timestamp:    &now,
	})
	if errors.Is(err, repository.ErrReviewExists) {
		s.remember(restaurantID, userID)
		s.metrics.ReviewsSubmitted.WithLabelValues("duplicate").Inc()
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		s.log.Error("failed to submit review", "restaurant_id", restaurantID, "user_id", userID, "error", err)
		return nil, err
	}

	s.remember(restaurantID, userID)
	s.catalog.Invalidate(ctx, restaurantID)
	s.metrics.ReviewsSubmitted.WithLabelValues("accepted").Inc()
	s.log.Info("review submitted", "restaurant_id", restaurantID, "user_id", userID, "rating", review.Rating)
	return &review, nil
}
