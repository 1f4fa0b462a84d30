// Package main is the entry point for the Select Start API server.
//
// The service reads community records ingested by the Discord bot
// (monthly challenge progress, yearly awards, game nominations) and serves
// them as cached leaderboard reports over REST. It never writes records
// itself.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: ranking and aggregation logic without external dependencies
// - Application: query handlers orchestrating cache and store
// - Infrastructure: PostgreSQL record store, snapshot persistence, RA API
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marquessam/select-start-api/config"
	"github.com/marquessam/select-start-api/internal/application/command"
	"github.com/marquessam/select-start-api/internal/application/query"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
	"github.com/marquessam/select-start-api/internal/infrastructure/external/retroachievements"
	"github.com/marquessam/select-start-api/internal/infrastructure/persistence/file"
	"github.com/marquessam/select-start-api/internal/infrastructure/persistence/postgres"
	redisstore "github.com/marquessam/select-start-api/internal/infrastructure/persistence/redis"
	httpserver "github.com/marquessam/select-start-api/internal/interface/http"
	"github.com/marquessam/select-start-api/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration & Logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.App.LogLevel)
	log := logger.New(logOpts)

	log.Info("starting select-start-api",
		logger.String("environment", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Record Store (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConns = int32(cfg.Database.MaxConns)
	dbCfg.MinConns = int32(cfg.Database.MinConns)
	dbCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	dbCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	dbCfg.QueryTimeout = cfg.Database.QueryTimeout

	conn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	challengeRepo := postgres.NewChallengeRepository(conn)
	userRepo := postgres.NewUserRepository(conn, log)

	// ─────────────────────────────────────────────────────────────────────────
	// Snapshot Store & Report Cache
	// ─────────────────────────────────────────────────────────────────────────
	var snapshotStore cache.SnapshotStore
	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendRedis:
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		store, err := redisstore.NewSnapshotStore(redisCfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer store.Close()
		snapshotStore = store
	default:
		store, err := file.NewSnapshotStore(cfg.Snapshot.Dir)
		if err != nil {
			return fmt.Errorf("open snapshot directory: %w", err)
		}
		snapshotStore = store
	}

	thresholds := cache.Thresholds{
		Monthly:     cfg.Cache.MonthlyTTL,
		Yearly:      cfg.Cache.YearlyTTL,
		Nominations: cfg.Cache.NominationsTTL,
	}
	reportCache := cache.New(snapshotStore, thresholds, log)

	// Best effort; an empty cache warms on first request.
	reportCache.Rehydrate(ctx, query.SnapshotDecoders())

	// ─────────────────────────────────────────────────────────────────────────
	// RetroAchievements Enrichment
	// ─────────────────────────────────────────────────────────────────────────
	raCfg := retroachievements.DefaultConfig()
	raCfg.BaseURL = cfg.RetroAchievements.BaseURL
	raCfg.Username = cfg.RetroAchievements.Username
	raCfg.APIKey = cfg.RetroAchievements.APIKey
	raCfg.Timeout = cfg.RetroAchievements.Timeout
	raCfg.MaxRetries = cfg.RetroAchievements.MaxRetries
	raCfg.FailureThreshold = cfg.RetroAchievements.FailureThreshold
	raCfg.RecoveryTimeout = cfg.RetroAchievements.RecoveryTimeout

	var games query.GameMetadataProvider
	raClient := retroachievements.New(raCfg, log)
	if raClient.Enabled() {
		games = raClient
	} else {
		log.Info("retroachievements enrichment disabled: no credentials")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application Layer
	// ─────────────────────────────────────────────────────────────────────────
	monthlyHandler := query.NewGetMonthlyLeaderboardHandler(challengeRepo, userRepo, reportCache, games, log)
	yearlyHandler := query.NewGetYearlyLeaderboardHandler(userRepo, reportCache, log)
	nominationsHandler := query.NewGetNominationsHandler(userRepo, reportCache, log)
	invalidateHandler := command.NewInvalidateCacheHandler(reportCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP Server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.APIKeys = cfg.HTTP.APIKeys
	serverCfg.AdminKeyHash = cfg.HTTP.AdminKeyHash

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		MonthlyLeaderboard: monthlyHandler,
		YearlyLeaderboard:  yearlyHandler,
		Nominations:        nominationsHandler,
		InvalidateCache:    invalidateHandler,
		Logger:             log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful Shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info("select-start-api stopped")
	return nil
}
