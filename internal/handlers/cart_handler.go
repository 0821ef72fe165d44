package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// CartHandler exposes the session's cart
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.logger)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.carts.View(claims.SessionID), h.logger)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.logger)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	view, err := h.carts.Add(r.Context(), claims.SessionID, req)
	if err != nil {
		writeServiceError(w, err, h.logger, "add to cart", "restaurant_id", req.RestaurantID, "item_id", req.ItemID)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.logger)
}

// RemoveItem handles DELETE /api/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.logger)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.carts.Remove(claims.SessionID, chi.URLParam(r, "itemId")), h.logger)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.logger)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.carts.Clear(claims.SessionID), h.logger)
}
