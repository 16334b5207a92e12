package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/benvon/authgate/internal/autherr"
	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/credentials"
	"github.com/benvon/authgate/internal/logger"
	"github.com/benvon/authgate/internal/models"
	"github.com/benvon/authgate/internal/tokens"
	"go.uber.org/zap"
)

// Errors surfaced by the Google flow. Messages are returned to clients as-is.
var (
	ErrGoogleDisabled       = autherr.Protocol("Google OAuth is disabled")
	ErrMissingCallbackParam = autherr.Protocol("Missing OAuth callback parameters")
	ErrInvalidState         = autherr.Protocol("Invalid OAuth state")
	ErrEmailNotFound        = autherr.Protocol("Google account email not found")
	ErrEmailNotAllowed      = autherr.Forbidden("Google account is not authorized")
)

// CallbackResult is the outcome of a completed Google login.
type CallbackResult struct {
	Identity    models.VerifiedIdentity
	AccessToken string
	// RedirectURL points the browser back to the frontend login page.
	RedirectURL string
}

// GoogleFlow drives the start/callback/verify steps of the Google
// authorization-code flow. CSRF protection relies solely on the signed state
// token; nothing is stored between steps.
type GoogleFlow struct {
	cfg         *config.AuthConfig
	credentials *credentials.Verifier
	codec       *tokens.Codec
	client      *Client
	idVerifier  *Verifier
	logger      *zap.Logger
}

// NewGoogleFlow wires the flow. A single HTTP client with the configured
// timeout is shared by the code exchange and the key fetch.
func NewGoogleFlow(cfg *config.AuthConfig, creds *credentials.Verifier, codec *tokens.Codec, jwks *JWKSManager, httpClient *http.Client, log *zap.Logger) *GoogleFlow {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.OAuthHTTPTimeout}
	}
	if jwks == nil {
		jwks = NewJWKSManager(httpClient, DefaultJWKSTTL)
	}
	return &GoogleFlow{
		cfg:         cfg,
		credentials: creds,
		codec:       codec,
		client:      NewClient(cfg, httpClient),
		idVerifier:  NewVerifier(jwks, cfg.GoogleJWKSURL, cfg.GoogleClientID, GoogleIssuers),
		logger:      log,
	}
}

// Start mints a state token and returns the provider authorization URL.
func (f *GoogleFlow) Start() (string, error) {
	if !f.credentials.GoogleModeEnabled() {
		return "", ErrGoogleDisabled
	}
	state, err := f.codec.MintState()
	if err != nil {
		return "", err
	}
	return f.client.AuthCodeURL(state), nil
}

// Callback validates the state, exchanges the code, verifies the ID token,
// applies the allow-list and mints an access token.
func (f *GoogleFlow) Callback(ctx context.Context, code, state string) (*CallbackResult, error) {
	if !f.credentials.GoogleModeEnabled() {
		return nil, ErrGoogleDisabled
	}
	if code == "" || state == "" {
		return nil, ErrMissingCallbackParam
	}
	if !f.codec.Enabled() {
		return nil, tokens.ErrSecretNotConfigured
	}
	if err := f.codec.VerifyState(state); err != nil {
		return nil, ErrInvalidState
	}

	rawIDToken, err := f.client.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrMissingIDToken) {
			return nil, autherr.Wrap(autherr.KindProtocol, "Missing Google ID token", err)
		}
		f.logger.Warn("google_code_exchange_failed", zap.String("error", logger.SanitizeError(err)))
		return nil, autherr.Wrap(autherr.KindProtocol, "Failed to exchange Google authorization code", err)
	}

	claims, err := f.idVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		if errors.Is(err, ErrKeySetUnavailable) {
			f.logger.Warn("google_jwks_unavailable", zap.String("error", logger.SanitizeError(err)))
			return nil, autherr.Wrap(autherr.KindProtocol, "Failed to fetch Google signing keys", err)
		}
		f.logger.Info("google_id_token_rejected", zap.String("error", logger.SanitizeError(err)))
		return nil, autherr.Wrap(autherr.KindAuthentication, "Invalid Google ID token", err)
	}

	if claims.Email == "" {
		return nil, ErrEmailNotFound
	}

	if !f.credentials.EmailAllowed(claims.Email) {
		f.logger.Warn("google_email_not_allowed", zap.String("email", logger.SanitizeEmail(claims.Email)))
		return nil, ErrEmailNotAllowed
	}

	accessToken, err := f.codec.MintAccess(claims.Email, models.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	f.logger.Info("google_login_succeeded",
		zap.String("email", logger.SanitizeEmail(claims.Email)),
		zap.Bool("email_verified", claims.EmailVerified),
	)

	return &CallbackResult{
		Identity:    models.VerifiedIdentity{Email: claims.Email, Provider: models.ProviderGoogle},
		AccessToken: accessToken,
		RedirectURL: f.frontendRedirect(accessToken),
	}, nil
}

func (f *GoogleFlow) frontendRedirect(accessToken string) string {
	q := url.Values{}
	q.Set("token", accessToken)
	q.Set("provider", string(models.ProviderGoogle))
	return f.cfg.FrontendURL + "/login?" + q.Encode()
}
