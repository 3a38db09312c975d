// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Indexer is the entry point for the bot/pack search core.

It serves staged fuzzy-prefix search and faceted counts over two on-disk
bleve indexes (bots, packs), kept in sync with a Postgres row-store and a
Redis-cached trending source.

Usage:

	go run cmd/indexer/main.go [flags]

The flags/environment variables are:

	SERVER_PORT          Port to listen on (default: 8080)
	ENVIRONMENT          deployment environment (development, production)
	DATA_PATH            base directory for the bot/pack indexes
	MAX_CONCURRENCY      search-core semaphore size
	DATABASE_URL         Postgres connection string (required)
	REDIS_URL            Redis connection string (required)
	TRENDING_BOTS_URL    trending-score source for bots (required)
	TRENDING_PACKS_URL   trending-score source for packs (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Core: Open the bot/pack indexes and run an initial refresh_all.
 5. Background: Start periodic vote/trending/full-index refresh loops.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corelist/searchcore/internal/api"
	"github.com/corelist/searchcore/internal/core/bot"
	"github.com/corelist/searchcore/internal/core/pack"
	"github.com/corelist/searchcore/internal/platform/config"
	"github.com/corelist/searchcore/internal/platform/constants"
	pgstore "github.com/corelist/searchcore/internal/platform/postgres"
	redisstore "github.com/corelist/searchcore/internal/platform/redis"
	"github.com/corelist/searchcore/internal/rowstore"
	"github.com/corelist/searchcore/internal/trending"
)

// refreshVotesInterval and refreshTrendingInterval govern how often the
// background loops re-read vote counters and the trending source; the
// trending source's own redis cache (60s TTL) already absorbs bursts, so
// these intervals only decide how fresh a stale read can be.
const (
	refreshVotesInterval    = 30 * time.Second
	refreshTrendingInterval = 60 * time.Second
	refreshAllInterval      = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("data_path", cfg.DataPath),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// # 4. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	store := rowstore.New(pool)
	trendingSrc := trending.NewSource(rdb, cfg.TrendingBotsURL, cfg.TrendingPacksURL)

	// # 5. Bot and pack Managers
	botMgr, err := bot.NewManager(startupCtx, cfg.DataPath, store, int64(cfg.MaxConcurrency), log.With(slog.String("entity", "bot")))
	if err != nil {
		return fmt.Errorf("open bot index: %w", err)
	}
	defer func() {
		if cerr := botMgr.Close(); cerr != nil {
			log.Error("bot_index_close_error", slog.Any("error", cerr))
		}
	}()

	packMgr, err := pack.NewManager(startupCtx, cfg.DataPath, store, int64(cfg.MaxConcurrency), botMgr, log.With(slog.String("entity", "pack")))
	if err != nil {
		return fmt.Errorf("open pack index: %w", err)
	}
	defer func() {
		if cerr := packMgr.Close(); cerr != nil {
			log.Error("pack_index_close_error", slog.Any("error", cerr))
		}
	}()

	// # 6. Initial population
	log.Info("running_initial_refresh")
	if err := botMgr.RefreshAll(startupCtx); err != nil {
		return fmt.Errorf("initial bot refresh_all: %w", err)
	}
	if err := packMgr.RefreshAll(startupCtx); err != nil {
		return fmt.Errorf("initial pack refresh_all: %w", err)
	}
	if err := refreshVotesAndTrending(startupCtx, botMgr, packMgr, trendingSrc, log); err != nil {
		return fmt.Errorf("initial votes/trending refresh: %w", err)
	}

	// # 7. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// # 8. API Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Bots:      api.NewBotHandler(botMgr),
		Packs:     api.NewPackHandler(packMgr),
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, handlers)

	// # 9. Background refresh loops
	go runPeriodic(appCtx, refreshVotesInterval, log, "refresh_votes", func(ctx context.Context) error {
		if err := botMgr.RefreshVotes(ctx); err != nil {
			return err
		}
		return packMgr.RefreshVotes(ctx)
	})
	go runPeriodic(appCtx, refreshTrendingInterval, log, "refresh_trending", func(ctx context.Context) error {
		if err := botMgr.RefreshTrending(ctx, trendingSrc); err != nil {
			return err
		}
		return packMgr.RefreshTrending(ctx, trendingSrc)
	})
	go runPeriodic(appCtx, refreshAllInterval, log, "refresh_all", func(ctx context.Context) error {
		if err := botMgr.RefreshAll(ctx); err != nil {
			return err
		}
		return packMgr.RefreshAll(ctx)
	})

	// # 10. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("indexer_running", slog.String("port", cfg.ServerPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	appCancel()

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

// refreshVotesAndTrending re-reads both entities' vote counters and
// trending snapshots (spec §4.8).
func refreshVotesAndTrending(ctx context.Context, botMgr *bot.Manager, packMgr *pack.Manager, src *trending.Source, log *slog.Logger) error {
	if err := botMgr.RefreshVotes(ctx); err != nil {
		return fmt.Errorf("bot votes: %w", err)
	}
	if err := packMgr.RefreshVotes(ctx); err != nil {
		return fmt.Errorf("pack votes: %w", err)
	}
	if err := botMgr.RefreshTrending(ctx, src); err != nil {
		return fmt.Errorf("bot trending: %w", err)
	}
	if err := packMgr.RefreshTrending(ctx, src); err != nil {
		return fmt.Errorf("pack trending: %w", err)
	}
	log.Debug("votes_and_trending_refreshed")
	return nil
}

// runPeriodic invokes task every interval until ctx is cancelled, logging
// (but not dying on) any single run's error — a failed refresh leaves the
// last-known-good live cache in place rather than taking the core down.
func runPeriodic(ctx context.Context, interval time.Duration, log *slog.Logger, name string, task func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task(ctx); err != nil {
				log.Error("periodic_refresh_failed", slog.String("task", name), slog.Any("error", err))
			}
		}
	}
}
