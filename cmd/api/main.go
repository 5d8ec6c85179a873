// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Command api is the entry point for the Dripside HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire services and HTTP handlers.
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

	"github.com/dripside-in/dripside-backend/internal/account"
	"github.com/dripside-in/dripside-backend/internal/api"
	"github.com/dripside-in/dripside-backend/internal/catalog"
	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/config"
	"github.com/dripside-in/dripside-backend/internal/platform/constants"
	"github.com/dripside-in/dripside-backend/internal/platform/cookie"
	"github.com/dripside-in/dripside-backend/internal/platform/middleware"
	"github.com/dripside-in/dripside-backend/internal/platform/migration"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	pgstore "github.com/dripside-in/dripside-backend/internal/platform/postgres"
	redisstore "github.com/dripside-in/dripside-backend/internal/platform/redis"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/internal/platform/storage"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", "dripside"))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "dripside"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("storage_enabled", cfg.StorageEnabled()),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.Tokens.Issuer, map[sec.TokenKind]sec.KeyConfig{
		sec.AccessToken:     {Secret: []byte(cfg.Tokens.AccessSecret), TTL: cfg.Tokens.AccessTTL},
		sec.RefreshToken:    {Secret: []byte(cfg.Tokens.RefreshSecret), TTL: cfg.Tokens.RefreshTTL},
		sec.ActivationToken: {Secret: []byte(cfg.Tokens.ActivationSecret), TTL: cfg.Tokens.ActivationTTL},
		sec.ResetToken:      {Secret: []byte(cfg.Tokens.ResetSecret), TTL: cfg.Tokens.ResetTTL},
	})
	must(log, err, "initialize token service")

	presigner, err := storage.NewPresigner(startupCtx, storage.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	must(log, err, "initialize object storage")

	notifier := notify.NewLogNotifier(log, cfg.MailSender, cfg.IsDevelopment())

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckSessions: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userStore := account.NewPostgresStore(pool, identity.KindUser)
	adminStore := account.NewPostgresStore(pool, identity.KindAdmin)

	identityService := identity.NewService(
		identity.NewRegistry(userStore, adminStore),
		tokens,
		identity.NewSessionStore(rdb),
		notifier,
		cfg.OTP,
	)
	sessions := identity.NewHandler(identityService, cookie.NewJar(cfg.Cookies, cfg.IsProduction()))
	authorizer := middleware.NewAuthorizer(tokens, identityService, cfg.Cookies.AccessToken)

	userService := account.NewService(identity.KindUser, userStore, identityService, notifier, cfg.IsDevelopment())
	adminService := account.NewService(identity.KindAdmin, adminStore, identityService, notifier, cfg.IsDevelopment())

	catalogHandlers := make(map[string]*catalog.Handler, len(catalog.Definitions))
	for _, definition := range catalog.Definitions {
		service := catalog.NewService(definition, catalog.NewPostgresStore(pool, definition), presigner, cfg.IsDevelopment())
		catalogHandlers[definition.Path] = catalog.NewHandler(service, authorizer)
	}

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		User:      account.NewHandler(userService, sessions, account.UserGates(authorizer)),
		Admin:     account.NewHandler(adminService, sessions, account.AdminGates(authorizer)),
		Catalog:   catalogHandlers,
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	// Let queued mail finish before the process exits.
	notifier.Wait()

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
