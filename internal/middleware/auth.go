package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

type contextKey struct{}

// TokenValidator turns a bearer token into session claims
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// WithClaims stores claims on the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFrom returns the claims set by BearerAuth
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter that browser EventSource and WebSocket
// clients have to use.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// BearerAuth rejects requests without a valid, unrevoked session token
func BearerAuth(v TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: bearer token required")
				return
			}

			claims, err := v.Validate(token)
			if err != nil {
				msg := "Unauthorized: invalid token"
				if errors.Is(err, auth.ErrSessionRevoked) {
					msg = "Unauthorized: session signed out"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only sessions with the given role. It must run
// after BearerAuth.
func RequireRole(role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized: bearer token required")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "Forbidden: "+string(role)+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
