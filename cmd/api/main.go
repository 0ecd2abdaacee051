// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Tessera HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/tessera/internal/api"
	"github.com/taibuivan/tessera/internal/authz/rbac"
	"github.com/taibuivan/tessera/internal/platform/config"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/metrics"
	"github.com/taibuivan/tessera/internal/platform/migration"
	pgstore "github.com/taibuivan/tessera/internal/platform/postgres"
	redisstore "github.com/taibuivan/tessera/internal/platform/redis"
	"github.com/taibuivan/tessera/internal/platform/sec"
	"github.com/taibuivan/tessera/internal/tenancy/license"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
	"github.com/taibuivan/tessera/internal/users/account"
	"github.com/taibuivan/tessera/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "tessera"))
	slog.SetDefault(log)

	log.Info("[Tessera] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "tessera"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Engine ───────────────────────────────────────────────────
	keys, err := sec.NewKeyManager(sec.KeyConfig{
		Algorithm:      cfg.JWTAlgorithm,
		Secret:         cfg.JWTSecret,
		PrivateKeyPath: cfg.JWTPrivKeyPath,
		PublicKeyPath:  cfg.JWTPubKeyPath,
	})
	must(log, err, "load signing keys")

	engine := sec.NewEngine(keys, cfg.JWTIssuer, cfg.JWTAudience, sec.VerifyPolicy{
		VerifyExpiry:   cfg.JWTVerifyExpiry,
		VerifyAudience: cfg.JWTVerifyAud,
		VerifyIssuer:   cfg.JWTVerifyIss,
		RequireIAT:     cfg.JWTRequireIAT,
		RequireNBF:     cfg.JWTRequireNBF,
		RequireJTI:     cfg.JWTRequireJTI,
		Leeway:         cfg.JWTLeeway,
	})

	// ── 7. Observability ──────────────────────────────────────────────────
	registry := metrics.New()

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	tenantRepository := tenant.NewPostgresRepository(pool)
	resolver := tenant.NewResolver(tenantRepository, cfg.TenantCacheSize, cfg.TenantCacheTTL, registry)

	adminRepository := auth.NewPostgresAdminRepository(pool)
	userRepository := auth.NewPostgresTenantUserRepository(pool)

	// The redis TTL matches the longest token lifetime so an entry expires
	// only after every token it could invalidate has itself expired.
	watermarkStore := auth.NewRedisWatermarkStore(rdb, cfg.RefreshTokenTTL)

	roleStore := rbac.NewPostgresStore(pool)
	must(log, roleStore.SeedGlobalRoles(startupCtx), "seed global roles")

	policyService := rbac.NewService(roleStore, registry,
		rbac.BusinessHours(cfg.BusinessHourStart, cfg.BusinessHourEnd, resolver, time.Now),
	)
	roleManager := rbac.NewManager(roleStore)
	roleHandler := rbac.NewHandler(roleManager)

	provisioner := tenant.NewProvisioner(tenantRepository, pool, roleStore)
	tenantHandler := tenant.NewHandler(provisioner, tenantRepository, resolver)

	licenseRepository := license.NewPostgresRepository(pool)
	licenseService := license.NewService(licenseRepository, userRepository)
	licenseHandler := license.NewHandler(licenseService, licenseRepository)

	revocationService := auth.NewRevocationService(
		adminRepository, userRepository, tenantRepository, watermarkStore, registry,
	)
	userCache := auth.NewUserCache(cfg.UserCacheSize, cfg.UserCacheTTL)

	authService := auth.NewService(
		adminRepository, userRepository, tenantRepository, resolver,
		engine, policyService, revocationService, userCache,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, registry,
	)
	authHandler := auth.NewHandler(authService)

	accountService := account.NewService(userRepository, licenseService, revocationService, roleManager, log)
	accountHandler := account.NewHandler(accountService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   registry.Handler(),
		Auth:      authHandler,
		Tenant:    tenantHandler,
		License:   licenseHandler,
		Role:      roleHandler,
		User:      accountHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, resolver, authService, policyService, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
