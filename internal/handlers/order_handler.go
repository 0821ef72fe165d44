package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// OrderHandler serves a customer's order history, one-shot or live
type OrderHandler struct {
	history *service.HistoryService
	feed    *feed
	log     *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(history *service.HistoryService, m *metrics.Metrics, checkOrigin func(*http.Request) bool, log *slog.Logger) *OrderHandler {
	renderHistory := func(orders []models.Order) any {
		return service.NewestFirst(orders)
	}
	return &OrderHandler{
		history: history,
		feed:    newFeed("history", renderHistory, checkOrigin, m.LiveSubscribers, log),
		log:     log,
	}
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	orders, err := h.history.List(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "list orders", "user_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// StreamOrders handles GET /api/orders/stream (server-sent events)
func (h *OrderHandler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	sub, err := h.history.Watch(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "subscribe to orders", "user_id", claims.UID)
		return
	}
	h.feed.serveSSE(w, r, sub)
}

// OrdersSocket handles GET /api/orders/ws
func (h *OrderHandler) OrdersSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	sub, err := h.history.Watch(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "subscribe to orders", "user_id", claims.UID)
		return
	}
	h.feed.serveWS(w, r, sub)
}
