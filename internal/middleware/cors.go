package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS creates CORS middleware for the given origins. Preflight requests are
// answered here and never reach the gate.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger != nil {
		logger.Info("cors_configured", zap.Strings("allowed_origins", allowedOrigins))
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "WWW-Authenticate"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}
