package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/benvon/authgate/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultLoginRate is applied when no rate is configured.
const DefaultLoginRate = "10-M"

const loginLimiterPrefix = "authgate:login"

// LoginRateLimit returns middleware limiting requests per client IP using
// ulule/limiter. The counters live in Redis when a client is given so that
// replicas share them, and in process memory otherwise. Forwarding headers
// only count when the connection comes from one of trustedProxies.
func LoginRateLimit(redisClient *redis.Client, formattedRate string, trustedProxies []netip.Prefix) (func(http.Handler) http.Handler, error) {
	if formattedRate == "" {
		formattedRate = DefaultLoginRate
	}
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, err
	}

	opts := limiter.StoreOptions{
		Prefix:          loginLimiterPrefix,
		MaxRetry:        limiter.DefaultMaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, opts)
		if err != nil {
			return nil, err
		}
	} else {
		store = memorystore.NewStoreWithOptions(opts)
	}

	instance := limiter.New(store, rate)
	keyGetter := func(r *http.Request) string {
		return request.TrustedClientIP(r, trustedProxies)
	}
	limitReached := func(w http.ResponseWriter, r *http.Request) {
		respondErrorJSON(w, r, http.StatusTooManyRequests, "Too many login attempts", zap.NewNop())
	}
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(keyGetter),
		stdlibmw.WithLimitReachedHandler(limitReached),
	)
	return mw.Handler, nil
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
