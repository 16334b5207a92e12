package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultJWKSTTL bounds how long fetched signing keys are trusted without refetching.
	DefaultJWKSTTL         = 1 * time.Hour
	// MinJWKSRefreshInterval is the shortest gap between forced refetches of one key set.
	MinJWKSRefreshInterval = 1 * time.Minute
	maxJWKSBodyBytes       = 1 << 20
)

const tracerName = "github.com/benvon/authgate/internal/services/oidc"

// tracer resolves against the current global provider.
func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// JWKSCache caches JWKS keys
type JWKSCache struct {
	keys    jwk.Set
	fetched time.Time
	expires time.Time
}

// JWKSManager manages JWKS fetching and caching
type JWKSManager struct {
	cache      map[string]*JWKSCache
	mu         sync.RWMutex
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	now        func() time.Time
}

// NewJWKSManager creates a new JWKS manager. The client's timeout bounds each fetch.
func NewJWKSManager(client *http.Client, ttl time.Duration) *JWKSManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = DefaultJWKSTTL
	}
	return &JWKSManager{
		cache:      make(map[string]*JWKSCache),
		ttl:        ttl,
		minRefresh: MinJWKSRefreshInterval,
		client:     client,
		now:        time.Now,
	}
}

// GetJWKS retrieves JWKS for a given JWKS URL, with caching
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	cache, exists := m.cache[jwksURL]
	m.mu.RUnlock()

	if exists && m.now().Before(cache.expires) {
		return cache.keys, nil
	}

	return m.load(ctx, jwksURL)
}

// Refresh refetches the key set before its TTL runs out. Used when a token
// names a key id the cached set does not contain. A set fetched less than
// MinJWKSRefreshInterval ago is returned as is, so unknown key ids cannot
// drive a fetch per request.
func (m *JWKSManager) Refresh(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	cache, exists := m.cache[jwksURL]
	m.mu.RUnlock()

	if exists && m.now().Before(cache.fetched.Add(m.minRefresh)) {
		return cache.keys, nil
	}

	return m.load(ctx, jwksURL)
}

func (m *JWKSManager) load(ctx context.Context, jwksURL string) (jwk.Set, error) {
	keys, err := m.fetchJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	now := m.now()
	m.mu.Lock()
	m.cache[jwksURL] = &JWKSCache{
		keys:    keys,
		fetched: now,
		expires: now.Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, nil
}

func (m *JWKSManager) fetchJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	ctx, span := tracer().Start(ctx, "oidc.fetch_jwks")
	defer span.End()
	span.SetAttributes(attribute.String("jwks.url", jwksURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	span.SetAttributes(attribute.Int("jwks.key_count", keys.Len()))
	return keys, nil
}
