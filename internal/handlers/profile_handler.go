package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// ProfileHandler serves the signed-in user's profile and loyalty balance
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, err, h.log, "load profile", "user_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, profile, h.log)
}

// UpdateProfile handles PUT /api/profile
// Only name, address and phoneNumber are read from the body.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	profile, err := h.profiles.Update(r.Context(), claims.UID, update)
	if err != nil {
		writeServiceError(w, err, h.log, "update profile", "user_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, profile, h.log)
}

// RedeemResponse carries the balance after a redemption
type RedeemResponse struct {
	LoyaltyPoints int64 `json:"loyaltyPoints"`
}

// Redeem handles POST /api/profile/redeem
func (h *ProfileHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}

	var req models.RedeemRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	balance, err := h.profiles.Redeem(r.Context(), claims.UID, req.Amount)
	if err != nil {
		writeServiceError(w, err, h.log, "redeem points", "user_id", claims.UID)
		return
	}
	WriteJSON(w, http.StatusOK, RedeemResponse{LoyaltyPoints: balance}, h.log)
}
