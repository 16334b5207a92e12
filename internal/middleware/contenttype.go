package middleware

import (
	"mime"
	"net/http"

	"go.uber.org/zap"
)

// RequireJSON rejects requests with a body whose Content-Type is not application/json.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				respondErrorJSON(w, r, http.StatusBadRequest, "Content-Type header is required", zap.NewNop())
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json", zap.NewNop())
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
