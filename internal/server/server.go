// Package server assembles the HTTP handler: middleware chain, request gate
// and routes.
package server

import (
	"context"
	"net/http"

	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/credentials"
	"github.com/benvon/authgate/internal/handlers"
	"github.com/benvon/authgate/internal/middleware"
	"github.com/benvon/authgate/internal/services/oidc"
	"github.com/benvon/authgate/internal/telemetry"
	"github.com/benvon/authgate/internal/tokens"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Deps are the external collaborators of the handler. All fields are optional.
type Deps struct {
	Logger *zap.Logger
	// Redis backs the login rate limiter; nil selects an in-process store.
	Redis *redis.Client
	// HTTPClient is used for the Google token and key endpoints.
	HTTPClient *http.Client
}

// NewHandler builds the full middleware chain around the router. The gate runs
// before routing so unknown paths are denied like known ones.
func NewHandler(cfg *config.Config, deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Auth.OAuthHTTPTimeout}
	}

	codec := tokens.NewCodec(&cfg.Auth, logger)
	creds := credentials.NewVerifier(&cfg.Auth, codec, logger)
	jwks := oidc.NewJWKSManager(httpClient, oidc.DefaultJWKSTTL)
	flow := oidc.NewGoogleFlow(&cfg.Auth, creds, codec, jwks, httpClient, logger)

	loginLimit, err := middleware.LoginRateLimit(deps.Redis, cfg.LoginRateLimit, cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	openAPI, err := handlers.NewOpenAPIHandler()
	if err != nil {
		return nil, err
	}

	healthDeps := map[string]handlers.Pinger{}
	if deps.Redis != nil {
		healthDeps["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}

	r := mux.NewRouter()
	if cfg.OTELEnabled {
		// Inside the router so spans are named after route templates.
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}

	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", handlers.NewHealthChecker(healthDeps).HealthCheck).Methods(http.MethodGet)
	openAPI.RegisterRoutes(r)
	handlers.NewAuthHandler(creds, flow, logger).RegisterRoutes(r, loginLimit, middleware.RequireJSON)

	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)

	gate := middleware.NewGate(creds, cfg.Auth.ExcludedPaths)
	logger.Info("auth_configured",
		zap.Bool("auth_required", creds.AuthRequired()),
		zap.Bool("password_auth", creds.PasswordModeEnabled()),
		zap.Bool("google_auth", creds.GoogleModeEnabled()),
		zap.Bool("signing_secret", codec.Enabled()),
		zap.Strings("excluded_paths", cfg.Auth.ExcludedPaths),
	)

	// Listed outermost first.
	chain := []func(http.Handler) http.Handler{
		middleware.ErrorHandler(logger),
		middleware.SecurityHeaders(cfg.EnableHSTS),
		middleware.CORS(cfg.CORSOrigins(), logger),
		middleware.MaxRequestSize(middleware.DefaultMaxRequestSize),
		middleware.Timeout(middleware.DefaultRequestTimeout),
		middleware.Audit(logger),
		middleware.Logging(logger),
		middleware.Auth(gate, logger),
	}

	var h http.Handler = r
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h, nil
}
