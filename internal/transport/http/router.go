package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "phonetrack/internal/auth/handler"
	"phonetrack/internal/blob"
	"phonetrack/internal/platform/health"
	trackinghandler "phonetrack/internal/tracking/handler"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/httputil"
	"phonetrack/pkg/platform/middleware/auth"
	"phonetrack/pkg/platform/middleware/metadata"
	"phonetrack/pkg/platform/middleware/request"
	"phonetrack/pkg/platform/middleware/requesttime"
)

// Options carries transport settings. Zero values fall back to defaults.
type Options struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	TrustedProxies []netip.Prefix
}

// Deps are the module handlers and cross-cutting collaborators the router mounts.
// Photos may be nil when the blob backend serves its own URLs.
type Deps struct {
	Logger         *slog.Logger
	Gatherer       prometheus.Gatherer
	LatencyMetrics *request.Metrics
	Health         *health.Handler
	Auth           *authhandler.Handler
	Tracking       *trackinghandler.Handler
	Photos         *blob.Handler
	Verifier       auth.TokenVerifier
	GuardMetrics   auth.Metrics
}

const (
	defaultMaxBodyBytes   = 64 * 1024
	defaultRequestTimeout = 30 * time.Second
)

// NewRouter wires all public endpoints with middleware.
func NewRouter(deps Deps, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: opts.TrustedProxies}).Handler)
	r.Use(request.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(request.LatencyMiddleware(deps.LatencyMetrics))
	r.Use(request.Timeout(opts.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:   "method_not_allowed",
			Message: "method not allowed",
		})
	})

	jsonLimit := request.BodyLimit(opts.MaxBodyBytes)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Photos != nil {
		deps.Photos.Register(r)
	}
	if deps.Auth != nil {
		r.Group(func(r chi.Router) {
			r.Use(jsonLimit)
			deps.Auth.Register(r)
		})
	}
	if deps.Tracking != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Verifier, logger, deps.GuardMetrics))
			deps.Tracking.Register(r, jsonLimit)
		})
	}

	return r
}
