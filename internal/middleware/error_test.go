package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/authgate/internal/autherr"
)

func TestErrorHandler_NoPanic(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	ErrorHandler(nil)(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestErrorHandler_PanicRecovery(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	ErrorHandler(nil)(handler).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Success {
		t.Error("Expected success to be false")
	}
	if body.Detail != "An unexpected error occurred" {
		t.Errorf("Expected generic detail, got '%s'", body.Detail)
	}
	if body.Path != "/test" {
		t.Errorf("Expected path '/test', got '%s'", body.Path)
	}
	if body.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantDetail    string
		wantChallenge bool
	}{
		{"config", autherr.Config("JWT secret is not configured"), http.StatusInternalServerError, "JWT secret is not configured", false},
		{"protocol", autherr.Protocol("Invalid OAuth state"), http.StatusBadRequest, "Invalid OAuth state", false},
		{"authentication", autherr.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password", true},
		{"authorization", autherr.Forbidden("Google account is not authorized"), http.StatusForbidden, "Google account is not authorized", false},
		{"wrapped", autherr.Wrap(autherr.KindProtocol, "Missing Google ID token", errors.New("upstream detail")), http.StatusBadRequest, "Missing Google ID token", false},
		{"unclassified", errors.New("dial tcp: secret internals"), http.StatusInternalServerError, "Internal server error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			RespondError(w, httptest.NewRequest("GET", "/auth/login", nil), tt.err, nil)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("WWW-Authenticate") == "Bearer"; got != tt.wantChallenge {
				t.Errorf("WWW-Authenticate present = %v, want %v", got, tt.wantChallenge)
			}
			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
			if body.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("error = %q, want %q", body.Error, http.StatusText(tt.wantStatus))
			}
		})
	}
}
