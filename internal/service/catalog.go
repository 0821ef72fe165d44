package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/food-ordering/internal/cache"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
)

// CatalogStore is the read side of restaurants, menus and reviews
type CatalogStore interface {
	repository.RestaurantRepository
	repository.MenuRepository
	repository.ReviewRepository
}

// CatalogService loads restaurant pages
type CatalogService struct {
	store CatalogStore
	cache cache.Cache
	log   *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, c cache.Cache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		cache: c,
		log:   log,
	}
}

func menuCacheKey(restaurantID string) string {
	return "catalog:menu:" + restaurantID
}

// ListRestaurants returns every restaurant a customer can order from
func (s *CatalogService) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.store.ListRestaurants(ctx)
}

// fetchResult is one of the three concurrent reads behind a menu page
type fetchResult struct {
	restaurant *models.Restaurant
	items      []models.MenuItem
	reviews    []models.Review
	err        error
}

// LoadMenu fetches the restaurant, its menu and its reviews concurrently.
// A missing restaurant document yields an empty name rather than an error.
func (s *CatalogService) LoadMenu(ctx context.Context, restaurantID string) (*models.Menu, error) {
	var cached models.Menu
	if s.cache.Get(ctx, menuCacheKey(restaurantID), &cached) {
		return &cached, nil
	}

	fetches := []func(context.Context) fetchResult{
		func(ctx context.Context) fetchResult {
			r, err := s.store.GetRestaurant(ctx, restaurantID)
			if errors.Is(err, repository.ErrRestaurantNotFound) {
				return fetchResult{restaurant: &models.Restaurant{ID: restaurantID}}
			}
			return fetchResult{restaurant: r, err: err}
		},
		func(ctx context.Context) fetchResult {
			items, err := s.store.ListMenuItems(ctx, restaurantID)
			return fetchResult{items: items, err: err}
		},
		func(ctx context.Context) fetchResult {
			reviews, err := s.store.ListReviews(ctx, restaurantID)
			return fetchResult{reviews: reviews, err: err}
		},
	}

	resultChan := make(chan fetchResult, len(fetches))
	var wg sync.WaitGroup
	for _, fetch := range fetches {
		wg.Add(1)
		go func(fetch func(context.Context) fetchResult) {
			defer wg.Done()
			resultChan <- fetch(ctx)
		}(fetch)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	menu := &models.Menu{
		Items:   []models.MenuItem{},
		Reviews: []models.Review{},
	}
	var errs []error
	for result := range resultChan {
		switch {
		case result.err != nil:
			errs = append(errs, result.err)
		case result.restaurant != nil:
			menu.Restaurant = *result.restaurant
		case result.items != nil:
			menu.Items = result.items
		case result.reviews != nil:
			menu.Reviews = result.reviews
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error("failed to load menu", "restaurant_id", restaurantID, "error", err)
		return nil, fmt.Errorf("load menu %s: %w", restaurantID, err)
	}

	SortReviews(menu.Reviews)
	menu.AverageRating = AverageRating(menu.Reviews)

	if err := s.cache.Set(ctx, menuCacheKey(restaurantID), menu); err != nil {
		s.log.Warn("failed to cache menu", "restaurant_id", restaurantID, "error", err)
	}
	return menu, nil
}

// Invalidate drops the cached page for a restaurant
func (s *CatalogService) Invalidate(ctx context.Context, restaurantID string) {
	if err := s.cache.Delete(ctx, menuCacheKey(restaurantID)); err != nil {
		s.log.Warn("failed to invalidate menu cache", "restaurant_id", restaurantID, "error", err)
	}
}

// SortReviews orders reviews newest first. Reviews without a timestamp go
// last and keep their relative order.
func SortReviews(reviews []models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i].Timestamp, reviews[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// AverageRating is the mean rating rounded to one decimal, or 0 with no reviews.
func AverageRating(reviews []models.Review) json.Number {
	if len(reviews) == 0 {
		return json.Number("0")
	}

	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(reviews))))
	return json.Number(avg.StringFixed(1))
}
