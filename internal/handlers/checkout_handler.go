package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// CheckoutHandler places orders from the session's cart
type CheckoutHandler struct {
	checkout *service.CheckoutService
	carts    *service.CartService
	log      *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *service.CheckoutService, carts *service.CartService, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		log:      log,
	}
}

// Checkout handles POST /api/checkout
// The response carries everything the confirmation page shows.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log.Warn("failed to decode checkout request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	confirmation, err := h.checkout.Checkout(r.Context(), claims.UID, h.carts.Cart(claims.SessionID), req)
	if err != nil {
		writeServiceError(w, err, h.log, "check out", "user_id", claims.UID, "payment_method", req.PaymentMethod)
		return
	}

	WriteJSON(w, http.StatusCreated, confirmation, h.log)
}
