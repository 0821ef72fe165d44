package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

type stubValidator map[string]*auth.Claims

func (s stubValidator) Validate(token string) (*auth.Claims, error) {
	if token == "revoked" {
		return nil, auth.ErrSessionRevoked
	}
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestBearerAuth(t *testing.T) {
	v := stubValidator{
		"customer-token": {UID: "u1", Role: models.RoleCustomer, SessionID: "s1"},
	}

	var seen *auth.Claims
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuth(v)(testHandler)

	tests := []struct {
		name           string
		header         string
		query          string
		expectedStatus int
	}{
		{"valid header", "Bearer customer-token", "", http.StatusOK},
		{"lowercase scheme", "bearer customer-token", "", http.StatusOK},
		{"query fallback", "", "customer-token", http.StatusOK},
		{"missing token", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", "", http.StatusUnauthorized},
		{"revoked token", "Bearer revoked", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			target := "/api/cart"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusOK && (seen == nil || seen.UID != "u1") {
				t.Errorf("expected claims for u1 on the request context, got %+v", seen)
			}
			if tt.expectedStatus != http.StatusOK && !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %q", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(models.RoleOwner)(ok)

	tests := []struct {
		name           string
		claims         *auth.Claims
		expectedStatus int
	}{
		{"owner", &auth.Claims{UID: "o1", Role: models.RoleOwner}, http.StatusNoContent},
		{"customer", &auth.Claims{UID: "u1", Role: models.RoleCustomer}, http.StatusForbidden},
		{"no profile role", &auth.Claims{UID: "u2"}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/owner/menu", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))

	out := buf.String()
	if !strings.Contains(out, "status=201") || !strings.Contains(out, "path=/api/checkout") {
		t.Errorf("log line missing request details: %s", out)
	}
}
