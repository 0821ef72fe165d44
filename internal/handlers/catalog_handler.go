package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// CatalogHandler serves restaurant pages and takes reviews
type CatalogHandler struct {
	catalog *service.CatalogService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, reviews *service.ReviewService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		reviews: reviews,
		logger:  logger,
	}
}

// ListRestaurants handles GET /api/restaurants
func (h *CatalogHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger, "list restaurants")
		return
	}
	WriteJSON(w, http.StatusOK, restaurants, h.logger)
}

// GetRestaurant handles GET /api/restaurants/{restaurantId}
// Returns the restaurant, its menu, reviews newest first and the average rating.
func (h *CatalogHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	menu, err := h.catalog.LoadMenu(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err, h.logger, "load menu", "restaurant_id", restaurantID)
		return
	}
	WriteJSON(w, http.StatusOK, menu, h.logger)
}

// SubmitReview handles POST /api/restaurants/{restaurantId}/reviews
func (h *CatalogHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.logger)
	if !ok {
		return
	}
	restaurantID := chi.URLParam(r, "restaurantId")

	var req models.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	review, err := h.reviews.Submit(r.Context(), restaurantID, claims.UID, req)
	if err != nil {
		writeServiceError(w, err, h.logger, "submit review", "restaurant_id", restaurantID, "user_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusCreated, review, h.logger)
}
