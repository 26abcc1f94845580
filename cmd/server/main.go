package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	authhandler "phonetrack/internal/auth/handler"
	authmetrics "phonetrack/internal/auth/metrics"
	authservice "phonetrack/internal/auth/service"
	userstore "phonetrack/internal/auth/store/user"
	"phonetrack/internal/blob"
	jwttoken "phonetrack/internal/jwt_token"
	"phonetrack/internal/platform/config"
	"phonetrack/internal/platform/database"
	"phonetrack/internal/platform/health"
	"phonetrack/internal/platform/logger"
	"phonetrack/internal/platform/tracer"
	trackinghandler "phonetrack/internal/tracking/handler"
	trackingmetrics "phonetrack/internal/tracking/metrics"
	trackingservice "phonetrack/internal/tracking/service"
	recordstore "phonetrack/internal/tracking/store/record"
	httptransport "phonetrack/internal/transport/http"
	"phonetrack/pkg/platform/middleware/request"
	"phonetrack/pkg/secrets"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level)
	slog.SetDefault(log)

	log.Info("initializing phonetrack", "config", cfg)
	if cfg.UsesInsecureSecret() {
		log.Warn("JWT_SECRET not set; using the built-in development secret. Tokens are forgeable.")
		if cfg.IsProduction() {
			return errors.New("refusing to start in production with the default JWT secret")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

type application struct {
	router  http.Handler
	closers []io.Closer
}

func (a *application) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Error("close resource", "error", err)
		}
	}
}

// build assembles stores, services and handlers from cfg. Without a database
// URL the identity and record stores live in memory.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	healthHandler := health.New(cfg.Server.Environment)

	var (
		users   authservice.UserStore
		records trackingservice.RecordStore
	)
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		app.closers = append(app.closers, pool)
		users = userstore.NewPostgres(pool.DB())
		records = recordstore.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("database", pool.Health)
		log.Info("using postgres stores")
	} else {
		users = userstore.New()
		records = recordstore.New()
		log.Warn("DATABASE_URL not set; using in-memory stores")
	}

	photos, closer, err := blob.NewFromConfig(cfg.Blob, log)
	if err != nil {
		app.close(log)
		return nil, fmt.Errorf("blob store: %w", err)
	}
	app.closers = append(app.closers, closer)
	healthHandler.RegisterCheck("blob", photos.Ping)

	var photoHandler *blob.Handler
	if reader, ok := photos.(blob.Reader); ok {
		photoHandler = blob.NewHandler(reader, log)
	}

	tokens := jwttoken.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authMetrics := authmetrics.New(reg)
	authSvc := authservice.New(users, secrets.NewHasher(cfg.Password.Cost), tokens,
		authservice.WithLogger(log),
		authservice.WithMetrics(authMetrics),
	)
	trackingSvc := trackingservice.New(records, photos,
		trackingservice.WithLogger(log),
		trackingservice.WithMetrics(trackingmetrics.New(reg)),
		trackingservice.WithTracer(tracer.NewOTel()),
	)

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		app.close(log)
		return nil, err
	}

	app.router = httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Gatherer:       reg,
		LatencyMetrics: request.NewMetrics(reg),
		Health:         healthHandler,
		Auth:           authhandler.New(authSvc, log),
		Tracking:       trackinghandler.New(trackingSvc, log),
		Photos:         photoHandler,
		Verifier:       jwttoken.NewVerifierAdapter(tokens),
		GuardMetrics:   authMetrics,
	}, httptransport.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: trustedProxies,
	})
	return app, nil
}
