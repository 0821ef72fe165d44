package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("no route to host") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantHealth string
	}{
		{"no checks", nil, http.StatusOK, "healthy"},
		{"all up", map[string]Pinger{"store": up, "cache": up}, http.StatusOK, "healthy"},
		{"cache down", map[string]Pinger{"store": up, "cache": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(discardLogger(), "1.2.3", "mongo", tt.checks)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Version != "1.2.3" || resp.Store != "mongo" {
				t.Errorf("unexpected version/store %q/%q", resp.Version, resp.Store)
			}
			if tt.name == "cache down" && resp.Checks["cache"] != "down" {
				t.Errorf("cache check = %q, want down", resp.Checks["cache"])
			}
		})
	}
}
