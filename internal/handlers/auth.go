package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/benvon/authgate/internal/autherr"
	"github.com/benvon/authgate/internal/credentials"
	logpkg "github.com/benvon/authgate/internal/logger"
	"github.com/benvon/authgate/internal/models"
	"github.com/benvon/authgate/internal/request"
	"github.com/benvon/authgate/internal/services/oidc"
	"github.com/benvon/authgate/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Errors returned by the login endpoint.
var (
	ErrPasswordAuthDisabled = autherr.Protocol("Password authentication is disabled")
	ErrInvalidLoginBody     = autherr.Protocol("Invalid login request")
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	creds  *credentials.Verifier
	google *oidc.GoogleFlow
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(creds *credentials.Verifier, google *oidc.GoogleFlow, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{creds: creds, google: google, logger: logger}
}

// RegisterRoutes registers auth routes under /auth. loginMiddleware wraps the
// login route only (rate limiting, content-type checks).
func (h *AuthHandler) RegisterRoutes(r *mux.Router, loginMiddleware ...func(http.Handler) http.Handler) {
	var login http.Handler = http.HandlerFunc(h.Login)
	for i := len(loginMiddleware) - 1; i >= 0; i-- {
		login = loginMiddleware[i](login)
	}

	r.HandleFunc("/auth/status", h.Status).Methods(http.MethodGet)
	r.Handle("/auth/login", login).Methods(http.MethodPost)
	r.HandleFunc("/auth/google", h.GoogleStart).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", h.GoogleCallback).Methods(http.MethodGet)
	r.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
}

// Status reports which authentication modes are active
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	enabled := h.creds.AuthRequired()
	message := "Authentication is disabled"
	if enabled {
		message = "Authentication is required"
	}
	respondJSON(w, http.StatusOK, models.AuthStatus{
		AuthEnabled:         enabled,
		PasswordAuthEnabled: h.creds.PasswordModeEnabled(),
		GoogleAuthEnabled:   h.creds.GoogleModeEnabled(),
		Message:             message,
	})
}

// Login exchanges an email/password pair for an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.creds.PasswordModeEnabled() {
		respondError(w, r, ErrPasswordAuthDisabled, h.logger)
		return
	}

	var req models.LoginRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, autherr.Wrap(autherr.KindProtocol, ErrInvalidLoginBody.Message, err), h.logger)
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		respondError(w, r, ErrInvalidLoginBody, h.logger)
		return
	}
	if err := validation.LoginRequest(&req); err != nil {
		respondError(w, r, autherr.Protocol(ErrInvalidLoginBody.Message+": "+err.Error()), h.logger)
		return
	}

	identity, err := h.creds.VerifyLogin(req.Email, req.Password)
	if err != nil {
		h.logger.Info("login_failed",
			zap.String("email", logpkg.SanitizeEmail(req.Email)),
			zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
		)
		respondError(w, r, err, h.logger)
		return
	}

	token, err := h.creds.IssueLoginToken(identity)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("login_succeeded",
		zap.String("email", logpkg.SanitizeEmail(identity.Email)),
		zap.String("provider", string(identity.Provider)),
	)
	respondJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Provider:    identity.Provider,
		Email:       identity.Email,
	})
}

// GoogleStart redirects the browser to Google's consent page
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.google.Start()
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// GoogleCallback completes the Google login and redirects to the frontend
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.google.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// Me returns the identity the gate admitted the request with
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r.Context())
	if identity == nil {
		respondJSON(w, http.StatusOK, models.MeResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, models.MeResponse{
		Authenticated: true,
		Email:         identity.Email,
		Provider:      identity.Provider,
	})
}
