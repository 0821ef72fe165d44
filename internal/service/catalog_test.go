package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    json.Number
	}{
		{"no reviews", nil, "0"},
		{"five four three", []int{5, 4, 3}, "4.0"},
		{"one review", []int{2}, "2.0"},
		{"repeating decimal", []int{5, 4, 4}, "4.3"},
		{"rounds half up", []int{5, 4, 4, 4}, "4.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]models.Review, len(tt.ratings))
			for i, r := range tt.ratings {
				reviews[i] = models.Review{Rating: r}
			}
			if got := AverageRating(reviews); got != tt.want {
				t.Errorf("AverageRating(%v) = %s, want %s", tt.ratings, got, tt.want)
			}
		})
	}
}

func TestSortReviews_NewestFirstMissingLast(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	reviews := []models.Review{
		{ID: "no-ts-1"},
		{ID: "old", Timestamp: ts(base.Add(-time.Hour))},
		{ID: "no-ts-2"},
		{ID: "new", Timestamp: ts(base)},
	}

	SortReviews(reviews)

	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "old", "no-ts-1", "no-ts-2"}, ids)
}

func TestCatalogService_LoadMenu(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.restaurant(t, "r1", "Luigi's")

	_, err := f.store.AddMenuItem(ctx, models.MenuItem{RestaurantID: "r1", Name: "Pizza", Price: "10.00"})
	require.NoError(t, err)
	for i, rating := range []int{5, 4, 3} {
		_, err := f.store.AddReview(ctx, models.Review{
			RestaurantID: "r1",
			UserID:       string(rune('a' + i)),
			Rating:       rating,
			Timestamp:    ts(time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
	}

	menu, err := f.catalog.LoadMenu(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Luigi's", menu.Restaurant.RestaurantName)
	require.Len(t, menu.Items, 1)
	require.Len(t, menu.Reviews, 3)
	assert.Equal(t, 3, menu.Reviews[0].Rating, "newest review first")
	assert.Equal(t, json.Number("4.0"), menu.AverageRating)
}

func TestCatalogService_LoadMenuMissingRestaurant(t *testing.T) {
	f := newFixture(t)

	menu, err := f.catalog.LoadMenu(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Equal(t, "nowhere", menu.Restaurant.ID)
	assert.Empty(t, menu.Restaurant.RestaurantName)
	assert.Empty(t, menu.Items)
	assert.Empty(t, menu.Reviews)
	assert.Equal(t, json.Number("0"), menu.AverageRating)
}

func TestCatalogService_CacheInvalidatedByMenuChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.restaurant(t, "r1", "Luigi's")

	menu, err := f.catalog.LoadMenu(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, menu.Items)

	_, err = f.menu.Add(ctx, "r1", models.MenuItemRequest{Name: "Soda", Price: "2.5"})
	require.NoError(t, err)

	menu, err = f.catalog.LoadMenu(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, menu.Items, 1)
	assert.Equal(t, "2.50", menu.Items[0].Price)
}
