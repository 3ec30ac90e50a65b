package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accounts/api/internal/cache"
	"accounts/api/internal/config"
	"accounts/api/internal/database"
	"accounts/api/internal/handlers"
	"accounts/api/internal/jobs"
	"accounts/api/internal/log"
	"accounts/api/internal/metrics"
	"accounts/api/internal/middleware"
	"accounts/api/internal/notify"
	"accounts/api/internal/repository"
	"accounts/api/internal/security"
	"accounts/api/internal/server"
	"accounts/api/internal/service"
	"accounts/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "accounts-api")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	if cfg.Postgres.MigrateOnStart {
		if err := database.RunMigrations(cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var archive service.ArchiveStore
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure audit bucket failed")
		}
		archive = objectStore
	} else {
		logger.Warn().Msg("storage endpoint not set, login exports disabled")
	}

	issuer, err := security.NewTokenIssuer(cfg.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token issuer")
	}
	verifier, err := security.NewTokenVerifier(cfg.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token verifier")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	users := repository.NewUserRepository(dbPool)
	roles := repository.NewRoleRepository(dbPool)
	confirmations := repository.NewConfirmationRepository(dbPool)
	logins := repository.NewLoginRepository(dbPool)

	outbox := notify.NewOutbox(redisClient, cfg.Mail.Stream, cfg.Mail.MaxLen)
	notifier := notify.NewNotifier(outbox, cfg.Mail.FromAddress, cfg.Mail.ConfirmURL, logger)

	authz := service.NewAuthorizer(users, roles)
	accountService := service.NewAccountService(users, roles, confirmations, issuer, notifier, logger)
	userService := service.NewUserService(users, authz)
	loginService := service.NewLoginService(logins, authz, archive, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, collector)

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:         logger,
		Environment: cfg.Environment,
		Accounts:    accountService,
		Users:       userService,
		Logins:      loginService,
		Verifier:    verifier,
		Authorizer:  authz,
		RateLimiter: limiter,
		Recorder:    collector,
		Metrics:     metrics.Handler(registry),
		Checks: []handlers.HealthCheck{
			{Name: "postgres", Check: dbPool.Ping},
			{Name: "redis", Check: cache.Ping(redisClient)},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, collector, handlerSet)

	var archiver jobs.LoginArchiver
	if archive != nil {
		archiver = loginService
	}
	scheduler := jobs.NewScheduler(cfg.Jobs, outbox, archiver, logger).WithSweeper(limiter)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
