package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

// Authenticator is the identity provider used by AuthHandler
type Authenticator interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Logout(claims *auth.Claims)
}

// AuthHandler handles account and session requests
type AuthHandler struct {
	auth Authenticator
	log  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(a Authenticator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, log: log}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	session, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.log, "sign up", "role", req.Role)
		return
	}
	WriteJSON(w, http.StatusCreated, session, h.log)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	session, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.log, "sign in")
		return
	}
	WriteJSON(w, http.StatusOK, session, h.log)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}
	h.auth.Logout(claims)
	w.WriteHeader(http.StatusNoContent)
}

// MeResponse describes the signed-in session
type MeResponse struct {
	UID       string      `json:"uid"`
	Role      models.Role `json:"role"`
	SessionID string      `json:"sessionId"`
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r, h.log)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, MeResponse{UID: claims.UID, Role: claims.Role, SessionID: claims.SessionID}, h.log)
}
