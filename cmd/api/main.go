package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/support-ai-platform/cmd/mainconfig"
	"github.com/wolfman30/support-ai-platform/internal/ai"
	"github.com/wolfman30/support-ai-platform/internal/api/router"
	"github.com/wolfman30/support-ai-platform/internal/app/bootstrap"
	"github.com/wolfman30/support-ai-platform/internal/appointments"
	"github.com/wolfman30/support-ai-platform/internal/availability"
	"github.com/wolfman30/support-ai-platform/internal/booking"
	appconfig "github.com/wolfman30/support-ai-platform/internal/config"
	"github.com/wolfman30/support-ai-platform/internal/events"
	"github.com/wolfman30/support-ai-platform/internal/extract"
	httpmiddleware "github.com/wolfman30/support-ai-platform/internal/http/middleware"
	"github.com/wolfman30/support-ai-platform/internal/messages"
	"github.com/wolfman30/support-ai-platform/internal/messaging"
	"github.com/wolfman30/support-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Default().Warn("failed to read .env", "error", err)
	}
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting support-ai-platform API server", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	metricsHandler, supportMetrics := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	directory := bootstrap.BuildTenantDirectory(tenant.NewPostgresStore(pool), redisClient, cfg.TenantCacheTTL, logger)

	registry, closeAI, err := bootstrap.BuildAIRegistry(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure ai providers", "error", err)
		os.Exit(1)
	}
	defer closeAI()

	resolver, apptRepo := buildResolver(cfg, pool, registry, supportMetrics, logger)

	var limiter *httpmiddleware.RateLimiter
	if cfg.PublicRateLimit > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.PublicRateLimit, cfg.PublicRateBurst)
		go limiter.RunEviction(ctx, 5*time.Minute, 10*time.Minute)
	}

	handler := router.New(&router.Config{
		Logger: logger,
		Messaging: messaging.NewHandler(messaging.HandlerConfig{
			TwilioAuthToken: cfg.TwilioAuthToken,
			PublicBaseURL:   cfg.PublicBaseURL,
			Directory:       directory,
			Resolver:        resolver,
			Metrics:         supportMetrics,
			Logger:          logger,
		}),
		Appointments:       appointments.NewHandler(apptRepo, logger),
		TenantJWTSecret:    cfg.TenantJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicLimiter:      limiter,
	})
	if cfg.TenantJWTSecret == "" {
		logger.Warn("TENANT_JWT_SECRET not set; appointment API disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildResolver wires the booking pipeline against Postgres.
func buildResolver(cfg *appconfig.Config, pool *pgxpool.Pool, registry *ai.Registry, m *metrics.SupportMetrics, logger *logging.Logger) (*booking.Resolver, *appointments.PostgresRepository) {
	apptRepo := appointments.NewPostgresRepository(pool, cfg.AppointmentDuration)
	recorder := booking.NewPostgresRecorder(
		pool,
		messages.NewStore(pool),
		apptRepo,
		events.NewOutboxStore(pool, 0),
	)
	responder := ai.NewResponder(registry, cfg.DefaultAIProvider, logger,
		ai.WithTimeout(cfg.AITimeout),
		ai.WithObserver(m),
	)
	resolver := booking.NewResolver(booking.Deps{
		Extractor:    extract.New(extract.WithFallbackParser(extract.NewFuzzyParser())),
		Availability: availability.NewChecker(apptRepo),
		Responder:    responder,
		Recorder:     recorder,
	}, booking.Config{
		Hours:       tenant.BusinessHours{Open: cfg.DefaultOpenHour, Close: cfg.DefaultCloseHour},
		Duration:    cfg.AppointmentDuration,
		Suggestions: cfg.SuggestedSlots,
	}, logger, booking.WithObserver(m))
	return resolver, apptRepo
}

func setupMetrics() (http.Handler, *metrics.SupportMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.New(reg)
}

func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	return pool
}
