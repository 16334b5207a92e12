package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/authgate/internal/middleware"
	"go.uber.org/zap"
)

// respondJSON sends data as the JSON response body
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError renders err through the shared error responder
func respondError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	middleware.RespondError(w, r, err, logger)
}

// NotFound answers unknown routes in the same shape as other errors
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, middleware.ErrorResponse{
		Error:     http.StatusText(http.StatusNotFound),
		Detail:    "Not Found",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}
