package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

func TestReviewService_RatingValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		rating  int
		wantErr error
	}{
		{"unselected", 0, ErrRatingRequired},
		{"negative", -1, ErrInvalidRating},
		{"too high", 6, ErrInvalidRating},
		{"lowest", 1, nil},
		{"highest", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.reviews.Submit(ctx, "r1", "u1", models.ReviewRequest{Rating: tt.rating, Comment: "ok"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				reviews, listErr := f.store.ListReviews(ctx, "r1")
				require.NoError(t, listErr)
				assert.Empty(t, reviews, "nothing is written for an invalid rating")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReviewService_SecondReviewRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.reviews.Submit(ctx, "r1", "u1", models.ReviewRequest{Rating: 4, Comment: " tasty "})
	require.NoError(t, err)
	assert.Equal(t, "tasty", first.Comment)
	require.NotNil(t, first.Timestamp)

	_, err = f.reviews.Submit(ctx, "r1", "u1", models.ReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = f.reviews.Submit(ctx, "r2", "u1", models.ReviewRequest{Rating: 5})
	assert.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReviewsSubmitted.WithLabelValues("duplicate")))
}

func TestReviewService_ConcurrentSubmissionsKeepOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reviews.Submit(ctx, "r1", "u1", models.ReviewRequest{Rating: 3})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	}
	assert.Equal(t, 1, accepted)

	reviews, err := f.store.ListReviews(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestReviewService_WarmLoadsStoredReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.restaurant(t, "r1", "Luigi's")
	_, err := f.store.AddReview(ctx, models.Review{RestaurantID: "r1", UserID: "u1", Rating: 5})
	require.NoError(t, err)

	require.NoError(t, f.reviews.Warm(ctx))
	assert.True(t, f.reviews.mayHaveReviewed("r1", "u1"))

	_, err = f.reviews.Submit(ctx, "r1", "u1", models.ReviewRequest{Rating: 2})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}
