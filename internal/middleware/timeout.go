package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout bounds a whole request, including the provider
	// round trips made by the Google callback.
	DefaultRequestTimeout = 30 * time.Second
)

// Timeout creates a middleware that enforces a timeout on request handlers.
// The handler context is cancelled when the timeout fires.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"success":false,"error":"Service Unavailable","detail":"Request timeout"}`)
	}
}
