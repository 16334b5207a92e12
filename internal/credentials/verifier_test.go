package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/models"
	"github.com/benvon/authgate/internal/tokens"
)

func newVerifier(cfg config.AuthConfig) *Verifier {
	if cfg.TokenLifetime == 0 {
		cfg.TokenLifetime = time.Hour
	}
	return NewVerifier(&cfg, tokens.NewCodec(&cfg, nil), nil)
}

func TestVerifier_Modes(t *testing.T) {
	t.Parallel()

	google := config.AuthConfig{
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		GoogleRedirectURI:  "http://localhost/auth/google/callback",
	}

	tests := []struct {
		name         string
		cfg          config.AuthConfig
		wantPassword bool
		wantGoogle   bool
	}{
		{"nothing configured", config.AuthConfig{}, false, false},
		{"secret alone does not enable auth", config.AuthConfig{Secret: "s3cr3t"}, false, false},
		{"legacy password", config.AuthConfig{LegacyPassword: "pw"}, true, false},
		{"admin pair", config.AuthConfig{AdminEmail: "a@x.com", AdminPassword: "pw"}, true, false},
		{"admin email only", config.AuthConfig{AdminEmail: "a@x.com"}, false, false},
		{"admin password only", config.AuthConfig{AdminPassword: "pw"}, false, false},
		{"google complete", google, false, true},
		{"google without redirect", config.AuthConfig{GoogleClientID: "client", GoogleClientSecret: "secret"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := newVerifier(tt.cfg)
			if got := v.PasswordModeEnabled(); got != tt.wantPassword {
				t.Errorf("PasswordModeEnabled() = %v, want %v", got, tt.wantPassword)
			}
			if got := v.GoogleModeEnabled(); got != tt.wantGoogle {
				t.Errorf("GoogleModeEnabled() = %v, want %v", got, tt.wantGoogle)
			}
			if got := v.AuthRequired(); got != (tt.wantPassword || tt.wantGoogle) {
				t.Errorf("AuthRequired() = %v", got)
			}
		})
	}
}

func TestVerifier_VerifyLogin(t *testing.T) {
	t.Parallel()

	admin := config.AuthConfig{Secret: "s3cr3t", AdminEmail: "a@x.com", AdminPassword: "pw", LegacyPassword: "legacy"}
	legacy := config.AuthConfig{LegacyPassword: "legacy"}

	tests := []struct {
		name     string
		cfg      config.AuthConfig
		email    string
		password string
		wantErr  bool
	}{
		{"admin exact", admin, "a@x.com", "pw", false},
		{"admin email case-insensitive", admin, "A@X.COM", "pw", false},
		{"admin wrong password", admin, "a@x.com", "wrong", true},
		{"admin password case-sensitive", admin, "a@x.com", "PW", true},
		{"admin wrong email", admin, "b@x.com", "pw", true},
		{"legacy ignored when admin pair set", admin, "anyone@x.com", "legacy", true},
		{"legacy any email", legacy, "whoever@example.com", "legacy", false},
		{"legacy wrong password", legacy, "whoever@example.com", "nope", true},
		{"nothing configured", config.AuthConfig{}, "a@x.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			identity, err := newVerifier(tt.cfg).VerifyLogin(tt.email, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLogin) {
					t.Errorf("VerifyLogin() error = %v, want ErrInvalidLogin", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyLogin() error = %v", err)
			}
			if identity.Email != tt.email || identity.Provider != models.ProviderPassword {
				t.Errorf("identity = %+v", identity)
			}
		})
	}
}

func TestVerifier_IssueLoginToken(t *testing.T) {
	t.Parallel()

	identity := &models.VerifiedIdentity{Email: "A@X.COM", Provider: models.ProviderPassword}

	t.Run("minted when secret configured", func(t *testing.T) {
		t.Parallel()
		v := newVerifier(config.AuthConfig{Secret: "s3cr3t", AdminEmail: "a@x.com", AdminPassword: "pw"})
		token, err := v.IssueLoginToken(identity)
		if err != nil {
			t.Fatalf("IssueLoginToken() error = %v", err)
		}
		got, ok := v.Authenticate(token)
		if !ok {
			t.Fatal("minted token was not accepted")
		}
		if got.Email != "A@X.COM" || got.Provider != models.ProviderPassword {
			t.Errorf("identity = %+v", got)
		}
	})

	t.Run("legacy password echoed without secret", func(t *testing.T) {
		t.Parallel()
		v := newVerifier(config.AuthConfig{LegacyPassword: "legacy"})
		token, err := v.IssueLoginToken(identity)
		if err != nil {
			t.Fatalf("IssueLoginToken() error = %v", err)
		}
		if token != "legacy" {
			t.Errorf("token = %q, want legacy password", token)
		}
	})

	t.Run("admin pair without secret is a configuration error", func(t *testing.T) {
		t.Parallel()
		v := newVerifier(config.AuthConfig{AdminEmail: "a@x.com", AdminPassword: "pw"})
		if _, err := v.IssueLoginToken(identity); !errors.Is(err, tokens.ErrSecretNotConfigured) {
			t.Errorf("IssueLoginToken() error = %v, want ErrSecretNotConfigured", err)
		}
	})
}

func TestVerifier_VerifyBearer(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{Secret: "s3cr3t", LegacyPassword: "legacy", AdminEmail: "a@x.com", AdminPassword: "adminpw"}
	v := newVerifier(cfg)
	token, err := tokens.NewCodec(&config.AuthConfig{Secret: "s3cr3t", TokenLifetime: time.Hour}, nil).MintAccess("a@x.com", models.ProviderPassword)
	if err != nil {
		t.Fatalf("MintAccess() error = %v", err)
	}
	foreign, err := tokens.NewCodec(&config.AuthConfig{Secret: "other", TokenLifetime: time.Hour}, nil).MintAccess("a@x.com", models.ProviderPassword)
	if err != nil {
		t.Fatalf("MintAccess() error = %v", err)
	}

	tests := []struct {
		name       string
		credential string
		want       bool
	}{
		{"legacy password", "legacy", true},
		{"minted token", token, true},
		{"admin password is not a bearer credential", "adminpw", false},
		{"token signed with another secret", foreign, false},
		{"empty", "", false},
		{"garbage", "xyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := v.VerifyBearer(tt.credential); got != tt.want {
				t.Errorf("VerifyBearer(%q) = %v, want %v", tt.credential, got, tt.want)
			}
		})
	}

	identity, ok := v.Authenticate("legacy")
	if !ok || identity.Provider != models.ProviderLegacy {
		t.Errorf("Authenticate(legacy) = %+v, %v", identity, ok)
	}
}

func TestVerifier_EmailAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		emails  []string
		domains []string
		email   string
		want    bool
	}{
		{"no filters", nil, nil, "anyone@anywhere.com", true},
		{"email listed", []string{"a@x.com"}, nil, "A@X.com", true},
		{"email not listed", []string{"a@x.com"}, nil, "b@x.com", false},
		{"domain listed", nil, []string{"example.com"}, "user@Example.com", true},
		{"domain not listed", nil, []string{"example.com"}, "user@other.com", false},
		{"subdomain is a different domain", nil, []string{"example.com"}, "user@mail.example.com", false},
		{"last at sign wins", nil, []string{"example.com"}, "odd@name@example.com", true},
		{"both filters pass", []string{"a@example.com"}, []string{"example.com"}, "a@example.com", true},
		{"email passes but domain fails", []string{"a@other.com"}, []string{"example.com"}, "a@other.com", false},
		{"domain passes but email fails", []string{"a@example.com"}, []string{"example.com"}, "b@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := newVerifier(config.AuthConfig{AllowedEmails: tt.emails, AllowedDomains: tt.domains})
			if got := v.EmailAllowed(tt.email); got != tt.want {
				t.Errorf("EmailAllowed(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
