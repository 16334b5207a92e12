package oidc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/benvon/authgate/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// GoogleIssuers are the issuer values Google stamps into ID tokens.
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	// ErrKeySetUnavailable means the signing keys could not be fetched.
	ErrKeySetUnavailable = errors.New("signing keys unavailable")
	// ErrInvalidIDToken covers every signature, audience, issuer and expiry failure.
	ErrInvalidIDToken = errors.New("invalid ID token")
)

// Verifier verifies provider ID tokens
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	clientID    string
	issuers     []string
}

// NewVerifier creates a new ID token verifier bound to one client id.
func NewVerifier(jwksManager *JWKSManager, jwksURL, clientID string, issuers []string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		clientID:    clientID,
		issuers:     issuers,
	}
}

// Verify checks the ID token's RS256 signature against the key named by its
// kid, its audience against the client id and its issuer against the
// accepted set, then extracts claims.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*models.GoogleClaims, error) {
	kid, err := keyID(idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	key, ok := keys.LookupKeyID(kid)
	if !ok {
		// Keys may have rotated since the cache was filled.
		keys, err = v.jwksManager.Refresh(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
		}
		if key, ok = keys.LookupKeyID(kid); !ok {
			return nil, fmt.Errorf("%w: no signing key with kid %q", ErrInvalidIDToken, kid)
		}
	}

	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKey(jwa.RS256, key),
		jwt.WithValidate(true),
		jwt.WithAudience(v.clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if !slices.Contains(v.issuers, token.Issuer()) {
		return nil, fmt.Errorf("%w: issuer mismatch: got %q", ErrInvalidIDToken, token.Issuer())
	}

	claims := &models.GoogleClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Aud: v.clientID,
	}
	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if iat := token.IssuedAt(); !iat.IsZero() {
		claims.Iat = iat.Unix()
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if verified, ok := token.Get("email_verified"); ok {
		switch val := verified.(type) {
		case bool:
			claims.EmailVerified = val
		case string:
			claims.EmailVerified = val == "true"
		}
	}

	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}

// keyID reads the kid from the token's protected header without verifying it.
func keyID(idToken string) (string, error) {
	msg, err := jws.Parse([]byte(idToken))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return "", fmt.Errorf("expected one signature, got %d", len(sigs))
	}
	kid := sigs[0].ProtectedHeaders().KeyID()
	if kid == "" {
		return "", errors.New("token header has no kid")
	}
	return kid, nil
}
