package config

import (
	"fmt"
	"math"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultExcludedPaths are reachable without credentials even when auth is enabled.
var DefaultExcludedPaths = []string{
	"/",
	"/health",
	"/docs",
	"/openapi.json",
	"/openapi.yaml",
	"/redoc",
	"/auth/status",
	"/auth/login",
	"/auth/google",
	"/auth/google/callback",
}

// AuthConfig is the process-wide authentication configuration.
// It is built once by Load and must be treated as read-only afterwards.
type AuthConfig struct {
	Secret             string
	TokenLifetime      time.Duration
	LegacyPassword     string
	AdminEmail         string
	AdminPassword      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	// Google endpoints are overridable so the flow can run against a fake provider.
	GoogleAuthURL    string
	GoogleTokenURL   string
	GoogleJWKSURL    string
	AllowedEmails    []string
	AllowedDomains   []string
	ExcludedPaths    []string
	FrontendURL      string
	OAuthHTTPTimeout time.Duration
}

// Config holds application configuration
type Config struct {
	Auth            AuthConfig
	ServerPort      string
	FrontendURL     string
	RedisURL        string
	LoginRateLimit  string
	TrustedProxies  []netip.Prefix
	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// maxTokenLifetimeMinutes keeps the lifetime representable as a time.Duration.
const maxTokenLifetimeMinutes = math.MaxInt64 / int64(time.Minute)

type rawEnv struct {
	Secret             string        `env:"OPEN_NOTEBOOK_JWT_SECRET"`
	TokenLifetimeMin   int64         `env:"OPEN_NOTEBOOK_JWT_EXPIRES_MINUTES" envDefault:"10080"`
	LegacyPassword     string        `env:"OPEN_NOTEBOOK_PASSWORD"`
	AdminEmail         string        `env:"OPEN_NOTEBOOK_ADMIN_EMAIL"`
	AdminPassword      string        `env:"OPEN_NOTEBOOK_ADMIN_PASSWORD"`
	GoogleClientID     string        `env:"OPEN_NOTEBOOK_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"OPEN_NOTEBOOK_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"OPEN_NOTEBOOK_GOOGLE_REDIRECT_URI"`
	GoogleAuthURL      string        `env:"OPEN_NOTEBOOK_GOOGLE_AUTH_URL"  envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	GoogleTokenURL     string        `env:"OPEN_NOTEBOOK_GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	GoogleJWKSURL      string        `env:"OPEN_NOTEBOOK_GOOGLE_JWKS_URL"  envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
	AllowedEmails      []string      `env:"OPEN_NOTEBOOK_GOOGLE_ALLOWED_EMAILS"  envSeparator:","`
	AllowedDomains     []string      `env:"OPEN_NOTEBOOK_GOOGLE_ALLOWED_DOMAINS" envSeparator:","`
	ExcludedPaths      []string      `env:"AUTH_EXCLUDED_PATHS" envSeparator:","`
	FrontendURL        string        `env:"OPEN_NOTEBOOK_FRONTEND_URL" envDefault:"http://localhost:3000"`
	OAuthHTTPTimeout   time.Duration `env:"OAUTH_HTTP_TIMEOUT" envDefault:"10s"`

	ServerPort      string   `env:"SERVER_PORT"  envDefault:"5055"`
	CORSOrigins     string   `env:"FRONTEND_URL"`
	RedisURL        string   `env:"REDIS_URL"`
	LoginRateLimit  string   `env:"LOGIN_RATE_LIMIT" envDefault:"10-M"`
	TrustedProxies  []string `env:"TRUSTED_PROXIES" envSeparator:","`
	EnableHSTS      bool     `env:"ENABLE_HSTS"`
	ServerDebugMode bool     `env:"SERVER_DEBUG_MODE"`
	OTELEnabled     bool     `env:"OTEL_ENABLED"`
	OTELEndpoint    string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return fromRaw(raw)
}

// LoadFrom builds configuration from an explicit variable map instead of the
// process environment. Used by tests and the authctl tool.
func LoadFrom(environ map[string]string) (*Config, error) {
	var raw rawEnv
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw rawEnv) (*Config, error) {
	if raw.TokenLifetimeMin <= 0 {
		return nil, fmt.Errorf("OPEN_NOTEBOOK_JWT_EXPIRES_MINUTES must be positive, got %d", raw.TokenLifetimeMin)
	}
	if raw.TokenLifetimeMin > maxTokenLifetimeMinutes {
		return nil, fmt.Errorf("OPEN_NOTEBOOK_JWT_EXPIRES_MINUTES must be at most %d, got %d", maxTokenLifetimeMinutes, raw.TokenLifetimeMin)
	}
	if raw.OAuthHTTPTimeout <= 0 {
		return nil, fmt.Errorf("OAUTH_HTTP_TIMEOUT must be positive, got %s", raw.OAuthHTTPTimeout)
	}

	trusted, err := parsePrefixes(raw.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	excluded := normalizePaths(raw.ExcludedPaths)
	if len(excluded) == 0 {
		excluded = append([]string(nil), DefaultExcludedPaths...)
	}

	frontendURL := strings.TrimRight(strings.TrimSpace(raw.FrontendURL), "/")

	corsOrigins := raw.CORSOrigins
	if strings.TrimSpace(corsOrigins) == "" {
		corsOrigins = frontendURL
	}

	cfg := &Config{
		Auth: AuthConfig{
			Secret:             raw.Secret,
			TokenLifetime:      time.Duration(raw.TokenLifetimeMin) * time.Minute,
			LegacyPassword:     raw.LegacyPassword,
			AdminEmail:         strings.TrimSpace(raw.AdminEmail),
			AdminPassword:      raw.AdminPassword,
			GoogleClientID:     strings.TrimSpace(raw.GoogleClientID),
			GoogleClientSecret: raw.GoogleClientSecret,
			GoogleRedirectURI:  strings.TrimSpace(raw.GoogleRedirectURI),
			GoogleAuthURL:      raw.GoogleAuthURL,
			GoogleTokenURL:     raw.GoogleTokenURL,
			GoogleJWKSURL:      raw.GoogleJWKSURL,
			AllowedEmails:      normalizeList(raw.AllowedEmails),
			AllowedDomains:     normalizeList(raw.AllowedDomains),
			ExcludedPaths:      excluded,
			FrontendURL:        frontendURL,
			OAuthHTTPTimeout:   raw.OAuthHTTPTimeout,
		},
		ServerPort:      raw.ServerPort,
		FrontendURL:     corsOrigins,
		RedisURL:        strings.TrimSpace(raw.RedisURL),
		LoginRateLimit:  raw.LoginRateLimit,
		TrustedProxies:  trusted,
		EnableHSTS:      raw.EnableHSTS,
		ServerDebugMode: raw.ServerDebugMode,
		OTELEnabled:     raw.OTELEnabled,
		OTELEndpoint:    raw.OTELEndpoint,
	}

	return cfg, nil
}

// CORSOrigins splits the comma-separated FRONTEND_URL value into origins.
func (c *Config) CORSOrigins() []string {
	var origins []string
	seen := make(map[string]struct{})
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		origins = append(origins, trimmed)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// normalizeList trims, lowercases and dedupes list entries, dropping blanks.
func normalizeList(items []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, item := range items {
		v := strings.ToLower(strings.TrimSpace(item))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizePaths(items []string) []string {
	var out []string
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		out = append(out, v)
	}
	return out
}

// parsePrefixes accepts CIDR blocks and bare addresses.
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
