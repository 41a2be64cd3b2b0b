package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wardroster/wardroster/internal/config"
	"github.com/wardroster/wardroster/internal/domain/calendar"
	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/domain/nursing"
	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/domain/roster"
	"github.com/wardroster/wardroster/internal/domain/staff"
	"github.com/wardroster/wardroster/internal/domain/ward"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/cache"
	"github.com/wardroster/wardroster/internal/platform/db"
	"github.com/wardroster/wardroster/internal/platform/metrics"
	"github.com/wardroster/wardroster/internal/platform/middleware"
	"github.com/wardroster/wardroster/internal/platform/telemetry"
)

func runServer() error {
	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	logger := newLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "wardroster",
		Version:     version,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")
	metrics.RegisterPool(prometheus.DefaultRegisterer, pool)

	kv, closeKV := connectCache(ctx, cfg, logger)
	defer closeKV()

	e, err := newServer(cfg, logger, pool, kv)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	return nil
}

// connectCache returns Redis when REDIS_URL is set and reachable, and the
// in-process cache otherwise.
func connectCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.KV, func()) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set; using in-memory ward cache")
		return cache.NewMemoryKV(), func() {}
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; using in-memory ward cache")
		return cache.NewMemoryKV(), func() {}
	}
	logger.Info().Msg("connected to redis")
	return cache.NewRedisKV(client), func() { _ = client.Close() }
}

func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, kv cache.KV) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	fallback, err := cfg.FallbackAssignment()
	if err != nil {
		return nil, err
	}
	authMW, err := authMiddleware(cfg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "wardroster")
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID", "X-Nurse-ID", "X-Nurse-Role"},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(authMW)
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, isExport))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitConfig(cfg)))

	tx := db.NewTransactor(pool)

	facilityRepo := facility.NewRepoPG(pool)
	staffRepo := staff.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)

	wardSvc := ward.NewService(ward.NewRepoPG(pool), facilityRepo, patientRepo, logger).
		WithCache(kv, cfg.WardCacheTTL)

	rosterSvc := roster.NewService(
		roster.NewPeriodRepoPG(pool),
		roster.NewAssignmentRepoPG(pool),
		staffRepo,
		facilityRepo,
		tx,
		logger,
	).WithLocation(loc)

	calendarSvc := calendar.NewService(rosterSvc)

	nursingSvc := nursing.NewService(
		nursing.NewVitalSignsRepoPG(pool),
		nursing.NewRecordRepoPG(pool),
		patientRepo,
		rosterSvc,
		tx,
		logger,
	).WithFallbackAssignment(fallback)
	if fallback != nil {
		logger.Warn().Str("assignment_id", fallback.String()).Msg("nursing fallback assignment enabled")
	}

	facility.NewHandler(facilityRepo).RegisterRoutes(apiV1)
	staff.NewHandler(staffRepo).RegisterRoutes(apiV1)
	patient.NewHandler(patientRepo).RegisterRoutes(apiV1)
	ward.NewHandler(wardSvc).RegisterRoutes(apiV1)
	roster.NewHandler(rosterSvc).RegisterRoutes(apiV1)
	calendar.NewHandler(calendarSvc).WithLocation(loc).RegisterRoutes(apiV1)
	nursing.NewHandler(nursingSvc).RegisterRoutes(apiV1)

	return e, nil
}

// authMiddleware picks the identity source for the resolved auth mode.
func authMiddleware(cfg *config.Config) (echo.MiddlewareFunc, error) {
	switch mode := cfg.ResolvedAuthMode(); mode {
	case "development":
		return auth.DevAuthMiddleware(auth.AuthSkipper), nil
	case "hmac":
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}), nil
	case "external":
		jwksURL := cfg.AuthJWKSURL
		if jwksURL == "" {
			provider, err := auth.NewOIDCProvider(cfg.AuthIssuer)
			if err != nil {
				return nil, fmt.Errorf("discover JWKS for issuer %s: %w", cfg.AuthIssuer, err)
			}
			jwksURL = provider.JWKSURI
		}
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  jwksURL,
			Skipper:  auth.AuthSkipper,
		}), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		return middleware.DefaultRateLimitConfig()
	}
	return rl
}

// isExport exempts spreadsheet downloads from the request timeout.
func isExport(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), "/export")
}
