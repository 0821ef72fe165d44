package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// OwnerHandler serves the owner dashboard and menu management. The
// owner's uid is also their restaurant id.
type OwnerHandler struct {
	owner *service.OwnerService
	menu  *service.MenuService
	feed  *feed
	log   *slog.Logger
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(owner *service.OwnerService, menu *service.MenuService, m *metrics.Metrics, checkOrigin func(*http.Request) bool, log *slog.Logger) *OwnerHandler {
	renderDashboard := func(orders []models.Order) any {
		return owner.BuildDashboard(orders)
	}
	return &OwnerHandler{
		owner: owner,
		menu:  menu,
		feed:  newFeed("owner", renderDashboard, checkOrigin, m.LiveSubscribers, log),
		log:   log,
	}
}

// ListMenu handles GET /api/owner/menu
func (h *OwnerHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	items, err := h.menu.List(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "list menu", "owner_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, items, h.log)
}

// AddMenuItem handles POST /api/owner/menu
func (h *OwnerHandler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	var req models.MenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	item, err := h.menu.Add(r.Context(), claims.UID, req)
	if err != nil {
		writeServiceError(w, err, h.log, "add menu item", "owner_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusCreated, item, h.log)
}

// DeleteMenuItem handles DELETE /api/owner/menu/{itemId}
func (h *OwnerHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")

	if err := h.menu.Delete(r.Context(), claims.UID, itemID); err != nil {
		writeServiceError(w, err, h.log, "delete menu item", "owner_id", claims.UID, "item_id", itemID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/owner/orders
func (h *OwnerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	dashboard, err := h.owner.Dashboard(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "load dashboard", "owner_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, dashboard, h.log)
}

// StreamDashboard handles GET /api/owner/orders/stream (server-sent events)
func (h *OwnerHandler) StreamDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	sub, err := h.owner.Watch(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "subscribe to dashboard", "owner_id", claims.UID)
		return
	}
	h.feed.serveSSE(w, r, sub)
}

// DashboardSocket handles GET /api/owner/orders/ws
func (h *OwnerHandler) DashboardSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	sub, err := h.owner.Watch(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "subscribe to dashboard", "owner_id", claims.UID)
		return
	}
	h.feed.serveWS(w, r, sub)
}

// MarkReady handles POST /api/owner/orders/{orderId}/ready
func (h *OwnerHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	order, err := h.owner.MarkReady(r.Context(), claims.UID, orderID)
	if err != nil {
		writeServiceError(w, err, h.log, "mark order ready", "owner_id", claims.UID, "order_id", orderID)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}
