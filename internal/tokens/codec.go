// Package tokens mints and verifies the HS256 tokens shared by every login
// path: access tokens handed to clients and short-lived OAuth state tokens.
package tokens

import (
	"errors"
	"time"

	"github.com/benvon/authgate/internal/autherr"
	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Issuer is stamped into every access token.
	Issuer = "open-notebook"
	// AccessAudience identifies access tokens.
	AccessAudience = "open-notebook-users"
	// StateAudience identifies OAuth state tokens. It must never equal AccessAudience.
	StateAudience = "open-notebook-google-oauth"
	// StateLifetime bounds the time between /auth/google and its callback.
	StateLifetime = 10 * time.Minute

	signingMethod = "HS256"
)

var (
	// ErrSecretNotConfigured is returned when minting without a signing secret.
	ErrSecretNotConfigured = autherr.Config("JWT secret is not configured")
	// ErrInvalidToken is the only verification failure callers ever see.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Provider models.Provider `json:"provider"`
}

// StateClaims is the payload of an OAuth state token. It carries no subject.
type StateClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with the process secret.
type Codec struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewCodec creates a codec from the auth configuration
func NewCodec(cfg *config.AuthConfig, logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{
		secret:   []byte(cfg.Secret),
		lifetime: cfg.TokenLifetime,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Enabled reports whether a signing secret is configured.
func (c *Codec) Enabled() bool {
	return len(c.secret) > 0
}

// MintAccess issues an access token for a verified identity.
func (c *Codec) MintAccess(subject string, provider models.Provider) (string, error) {
	if !provider.Valid() {
		return "", autherr.Config("unsupported token provider " + string(provider))
	}
	now := c.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{AccessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
		Provider: provider,
	}
	return c.sign(claims)
}

// MintState issues an OAuth state token valid for StateLifetime.
func (c *Codec) MintState() (string, error) {
	now := c.now()
	claims := StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{StateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateLifetime)),
		},
	}
	return c.sign(claims)
}

// VerifyAccess checks signature, expiry, audience and issuer of an access token.
func (c *Codec) VerifyAccess(token string) (*models.VerifiedIdentity, error) {
	var claims AccessClaims
	if err := c.parse(token, &claims, AccessAudience, Issuer); err != nil {
		return nil, err
	}
	if claims.Subject == "" || !claims.Provider.Valid() {
		c.logger.Debug("token_rejected",
			zap.String("audience", AccessAudience),
			zap.String("reason", "missing_subject_or_provider"),
		)
		return nil, ErrInvalidToken
	}
	return &models.VerifiedIdentity{Email: claims.Subject, Provider: claims.Provider}, nil
}

// VerifyState checks signature, expiry and audience of an OAuth state token.
func (c *Codec) VerifyState(token string) error {
	var claims StateClaims
	return c.parse(token, &claims, StateAudience, "")
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	if !c.Enabled() {
		return "", ErrSecretNotConfigured
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", autherr.Wrap(autherr.KindConfig, "failed to sign token", err)
	}
	return signed, nil
}

func (c *Codec) parse(token string, claims jwt.Claims, audience, issuer string) error {
	if !c.Enabled() || token == "" {
		return ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		c.logger.Debug("token_rejected",
			zap.String("audience", audience),
			zap.String("reason", rejectReason(err)),
		)
		return ErrInvalidToken
	}
	return nil
}

// rejectReason names the failed check for internal logs only.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "issuer"
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return "not_yet_valid"
	default:
		return "invalid"
	}
}
