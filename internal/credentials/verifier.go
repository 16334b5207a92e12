// Package credentials decides whether a presented password, bearer
// credential or OAuth-verified email is admissible under the configured
// authentication modes.
package credentials

import (
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/benvon/authgate/internal/autherr"
	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/models"
	"github.com/benvon/authgate/internal/tokens"
	"go.uber.org/zap"
)

// ErrInvalidLogin is returned for any rejected email/password pair.
var ErrInvalidLogin = autherr.Unauthorized("Invalid email or password")

// Verifier evaluates credentials against an immutable AuthConfig.
type Verifier struct {
	cfg    *config.AuthConfig
	codec  *tokens.Codec
	logger *zap.Logger
}

// NewVerifier creates a credential verifier
func NewVerifier(cfg *config.AuthConfig, codec *tokens.Codec, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{cfg: cfg, codec: codec, logger: logger}
}

// PasswordModeEnabled is true when a legacy password or a complete admin pair is configured.
func (v *Verifier) PasswordModeEnabled() bool {
	return v.cfg.LegacyPassword != "" || v.adminPairConfigured()
}

// GoogleModeEnabled is true when client id, client secret and redirect URI are all set.
func (v *Verifier) GoogleModeEnabled() bool {
	return v.cfg.GoogleClientID != "" && v.cfg.GoogleClientSecret != "" && v.cfg.GoogleRedirectURI != ""
}

// AuthRequired is the master switch consulted by the request gate.
func (v *Verifier) AuthRequired() bool {
	return v.PasswordModeEnabled() || v.GoogleModeEnabled()
}

func (v *Verifier) adminPairConfigured() bool {
	return v.cfg.AdminEmail != "" && v.cfg.AdminPassword != ""
}

// VerifyLogin checks an email/password pair. The admin pair takes priority;
// when it is configured the legacy password is not consulted.
func (v *Verifier) VerifyLogin(email, password string) (*models.VerifiedIdentity, error) {
	if v.adminPairConfigured() {
		emailOK := strings.EqualFold(email, v.cfg.AdminEmail)
		passwordOK := secureEqual(password, v.cfg.AdminPassword)
		if !emailOK || !passwordOK {
			return nil, ErrInvalidLogin
		}
		return &models.VerifiedIdentity{Email: email, Provider: models.ProviderPassword}, nil
	}

	if v.cfg.LegacyPassword != "" && secureEqual(password, v.cfg.LegacyPassword) {
		return &models.VerifiedIdentity{Email: email, Provider: models.ProviderPassword}, nil
	}

	return nil, ErrInvalidLogin
}

// IssueLoginToken returns the access token handed back by /auth/login.
// Without a signing secret a legacy-password login receives the legacy
// password itself, which the gate accepts as a bearer credential.
func (v *Verifier) IssueLoginToken(identity *models.VerifiedIdentity) (string, error) {
	if !v.codec.Enabled() && !v.adminPairConfigured() && v.cfg.LegacyPassword != "" {
		return v.cfg.LegacyPassword, nil
	}
	return v.codec.MintAccess(identity.Email, identity.Provider)
}

// VerifyBearer accepts the legacy shared password or a valid access token.
// The admin password is never accepted directly.
func (v *Verifier) VerifyBearer(credential string) bool {
	_, ok := v.Authenticate(credential)
	return ok
}

// Authenticate is VerifyBearer that also returns who the credential belongs to.
func (v *Verifier) Authenticate(credential string) (*models.VerifiedIdentity, bool) {
	if credential == "" {
		return nil, false
	}
	if v.cfg.LegacyPassword != "" && secureEqual(credential, v.cfg.LegacyPassword) {
		return &models.VerifiedIdentity{Provider: models.ProviderLegacy}, true
	}
	identity, err := v.codec.VerifyAccess(credential)
	if err != nil {
		return nil, false
	}
	return identity, true
}

// EmailAllowed applies the allow-list. Configured filters are ANDed; an
// absent filter places no restriction.
func (v *Verifier) EmailAllowed(email string) bool {
	lower := strings.ToLower(strings.TrimSpace(email))

	if len(v.cfg.AllowedEmails) > 0 && !slices.Contains(v.cfg.AllowedEmails, lower) {
		v.logger.Debug("email_not_in_allowed_emails")
		return false
	}

	if len(v.cfg.AllowedDomains) > 0 {
		domain := lower[strings.LastIndex(lower, "@")+1:]
		if !slices.Contains(v.cfg.AllowedDomains, domain) {
			v.logger.Debug("email_domain_not_allowed", zap.String("domain", domain))
			return false
		}
	}

	return true
}

// secureEqual compares secrets in constant time for equal-length inputs.
func secureEqual(given, want string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}
