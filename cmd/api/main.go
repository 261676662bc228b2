package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"oneaccount/api/internal/cache"
	"oneaccount/api/internal/config"
	"oneaccount/api/internal/database"
	"oneaccount/api/internal/handlers"
	"oneaccount/api/internal/jobs"
	"oneaccount/api/internal/log"
	"oneaccount/api/internal/repository"
	"oneaccount/api/internal/security"
	"oneaccount/api/internal/server"
	"oneaccount/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	avatarStore, err := storage.NewAvatarStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init avatar store")
	}
	if err := avatarStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure avatar bucket failed")
	}

	tokens, err := security.NewTokenAuthority(map[security.Tier]security.TierKey{
		security.TierAccount: {
			Secret: cfg.Security.AccountToken.Secret,
			TTL:    cfg.Security.AccountToken.TTL,
		},
		security.TierAdmin: {
			Secret: cfg.Security.AdminToken.Secret,
			TTL:    cfg.Security.AdminToken.TTL,
		},
		security.TierSuperAdmin: {
			Secret: cfg.Security.SuperAdminToken.Secret,
			TTL:    cfg.Security.SuperAdminToken.TTL,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token authority")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, avatarStore, tokens, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.IntegritySweep {
		scheduler = jobs.NewScheduler(repository.NewRoleRepository(dbPool), logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
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
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
