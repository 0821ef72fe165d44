package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/middleware"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// badRequest errors carry a message meant for the user
var badRequest = []error{
	service.ErrRatingRequired,
	service.ErrInvalidRating,
	service.ErrEmptyCart,
	service.ErrPaymentMethodRequired,
	service.ErrUnknownPaymentMethod,
	service.ErrCardDetailsRequired,
	service.ErrBankDetailsRequired,
	service.ErrMenuItemNameRequired,
	service.ErrMenuItemPriceRequired,
	service.ErrInvalidPrice,
	service.ErrItemIDRequired,
	service.ErrInvalidRedeemAmount,
	service.ErrNotEnoughPoints,
	auth.ErrInvalidEmail,
	auth.ErrWeakPassword,
	auth.ErrInvalidRole,
	auth.ErrRestaurantNameRequired,
}

var notFound = map[error]string{
	repository.ErrRestaurantNotFound: "Restaurant not found",
	repository.ErrMenuItemNotFound:   "Menu item not found",
	repository.ErrOrderNotFound:      "Order not found",
	repository.ErrUserNotFound:       "Profile not found",
}

// statusFor maps a service or store error to an HTTP status and message
func statusFor(err error) (int, string) {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}
	for target, msg := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound, msg
		}
	}

	switch {
	case errors.Is(err, service.ErrAlreadyReviewed):
		return http.StatusConflict, service.ErrAlreadyReviewed.Error()
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeServiceError logs server-side failures and writes the mapped response
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger, op string, attrs ...any) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("failed to "+op, append(attrs, "error", err)...)
	} else {
		logger.Info(op+" rejected", append(attrs, "reason", err.Error())...)
	}
	WriteError(w, status, msg, logger)
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// sessionClaims returns the authenticated session or writes a 401
func sessionClaims(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*auth.Claims, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Unauthorized: bearer token required", logger)
		return nil, false
	}
	return claims, true
}
