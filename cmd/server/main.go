// Command server is the entry point for the snipstream API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snipstream/internal/config"
	"snipstream/internal/database"
	"snipstream/internal/middleware"
	"snipstream/internal/observability"
	"snipstream/internal/repository"
	"snipstream/internal/server"
	"snipstream/internal/sweep"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "snipstream-api",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		middleware.Logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
			middleware.Logger.Warn("redis unavailable, realtime delivery is single-instance only",
				"addr", cfg.RedisURL, "error", pingErr)
			redisClient = nil
		}
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient)
	if err != nil {
		middleware.Logger.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}

	sweeper := sweep.NewSweeper(repository.NewBugRepository(db),
		sweep.WithSchedule(cfg.BugSweepSchedule))
	if err := sweeper.Start(); err != nil {
		middleware.Logger.Error("failed to start bug sweeper", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		middleware.Logger.Info("shutting down", "signal", sig.String())
	}

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		middleware.Logger.Error("shutdown finished with errors", "error", err)
		os.Exit(1)
	}
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("tracing shutdown failed", "error", err)
	}
	middleware.Logger.Info("shutdown complete")
}
