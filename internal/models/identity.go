package models

// Provider names the credential form that produced an identity.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	// ProviderLegacy marks requests admitted with the shared password as a raw bearer credential.
	// It is never written into a token.
	ProviderLegacy Provider = "legacy"
)

// Valid reports whether p may appear in an access token.
func (p Provider) Valid() bool {
	return p == ProviderPassword || p == ProviderGoogle
}

// VerifiedIdentity is the output of a successful verification. It is never persisted.
type VerifiedIdentity struct {
	Email    string   `json:"email"`
	Provider Provider `json:"provider"`
}
