package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/benvon/authgate/internal/autherr"
	logpkg "github.com/benvon/authgate/internal/logger"
	"github.com/benvon/authgate/internal/models"
	"github.com/benvon/authgate/internal/request"
	"go.uber.org/zap"
)

// Deny reasons returned to clients.
const (
	ReasonMissingHeader      = "Missing authorization header"
	ReasonInvalidFormat      = "Invalid authorization header format"
	ReasonInvalidCredentials = "Invalid credentials"
)

// BearerAuthenticator is the part of the credential verifier the gate needs.
type BearerAuthenticator interface {
	AuthRequired() bool
	Authenticate(credential string) (*models.VerifiedIdentity, bool)
}

// Decision is the outcome of evaluating one request.
type Decision struct {
	Allowed bool
	// Reason is set on deny.
	Reason string
	// Identity is set when a bearer credential was verified.
	Identity *models.VerifiedIdentity
}

// Gate decides per request whether the caller may proceed.
type Gate struct {
	auth     BearerAuthenticator
	excluded []string
}

// NewGate creates a gate. Paths in excluded are matched exactly.
func NewGate(auth BearerAuthenticator, excluded []string) *Gate {
	return &Gate{auth: auth, excluded: slices.Clone(excluded)}
}

// Evaluate applies the gate rules in order. It performs no I/O.
func (g *Gate) Evaluate(r *http.Request) Decision {
	if !g.auth.AuthRequired() {
		return Decision{Allowed: true}
	}
	if slices.Contains(g.excluded, r.URL.Path) {
		return Decision{Allowed: true}
	}
	if r.Method == http.MethodOptions {
		return Decision{Allowed: true}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return Decision{Reason: ReasonMissingHeader}
	}

	scheme, credential, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return Decision{Reason: ReasonInvalidFormat}
	}

	identity, ok := g.auth.Authenticate(credential)
	if !ok {
		return Decision{Reason: ReasonInvalidCredentials}
	}
	return Decision{Allowed: true, Identity: identity}
}

// Auth adapts the gate to net/http. Denied requests get a 401 with
// WWW-Authenticate: Bearer; admitted identities are stored in the context.
func Auth(gate *Gate, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := gate.Evaluate(r)
			if !decision.Allowed {
				logger.Info("bearer_rejected",
					zap.String("reason", decision.Reason),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestID(r.Context())),
				)
				RespondError(w, r, autherr.Unauthorized(decision.Reason), logger)
				return
			}

			if decision.Identity != nil {
				r = r.WithContext(request.WithIdentity(r.Context(), decision.Identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}
