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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"recipe-box/internal/config"
	"recipe-box/internal/infra/adapter/persistence"
	workerPkg "recipe-box/internal/infra/worker"
	"recipe-box/internal/observability/logging"
	"recipe-box/internal/observability/tracing"
	"recipe-box/internal/repository"
	"recipe-box/internal/resilience/retry"
	recipeUC "recipe-box/internal/usecase/recipe"
	"recipe-box/internal/usecase/snapshot"
)

func main() {
	appCfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, "json", appCfg.LogLevel)
	slog.SetDefault(logger)

	shutdownTracing, err := tracing.Setup("recipe-box-worker", getVersion())
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	store := initStore(logger, appCfg.Store)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig := workerPkg.LoadConfig(workerPkg.WorkerConfig{
		CronSchedule: appCfg.Snapshot.Cron,
		Timezone:     appCfg.Snapshot.Timezone,
	}, logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("job_timeout", workerConfig.JobTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.String("snapshot_dir", appCfg.Snapshot.Dir),
		slog.Int("snapshot_keep", appCfg.Snapshot.Keep))

	recipes := recipeUC.NewService(store, appCfg.Store.Key, logger)
	snapshots := snapshot.NewService(recipes, appCfg.Snapshot.Dir, appCfg.Snapshot.Keep, logger)

	startMetricsServer(ctx, logger, snapshots)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger, store.Ping)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startCronWorker(logger, snapshots, workerConfig, workerMetrics, healthServer)
}

// initStore opens the configured key-value backend, retrying while it comes up.
func initStore(logger *slog.Logger, cfg config.StoreConfig) repository.KeyValueStore {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var store repository.KeyValueStore
	err := retry.WithBackoff(ctx, retry.StoreOpenConfig(), func() error {
		var openErr error
		store, openErr = persistence.Open(ctx, cfg)
		return openErr
	})
	if err != nil {
		logger.Error("failed to open recipe store",
			slog.String("backend", cfg.Backend),
			slog.Any("error", err))
		os.Exit(1)
	}
	return store
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// startCronWorker schedules the snapshot job and blocks until SIGINT or SIGTERM.
func startCronWorker(
	logger *slog.Logger,
	snapshots *snapshot.Service,
	workerConfig workerPkg.WorkerConfig,
	workerMetrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	loc, err := time.LoadLocation(workerConfig.Timezone)
	if err != nil {
		// LoadConfig already validated the zone; this only guards a missing tzdata.
		logger.Warn("timezone unavailable, using UTC", slog.String("timezone", workerConfig.Timezone))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(workerConfig.CronSchedule, func() {
		runSnapshot(logger, snapshots, workerConfig.JobTimeout, workerMetrics)
	})
	if err != nil {
		logger.Error("failed to schedule snapshot job", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	healthServer.SetReady(true)
	logger.Info("snapshot worker started", slog.String("schedule", workerConfig.CronSchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	healthServer.SetReady(false)
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// runSnapshot executes one job run with a timeout and records its metrics.
func runSnapshot(logger *slog.Logger, snapshots *snapshot.Service, timeout time.Duration, workerMetrics *workerPkg.WorkerMetrics) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	stats, err := snapshots.Run(ctx)
	workerMetrics.RecordRun(err, time.Since(start).Seconds(), stats.Recipes)
	if err != nil {
		logger.Error("snapshot job failed", slog.Any("error", err))
		return
	}
	logger.Info("snapshot job completed",
		slog.String("path", stats.Path),
		slog.Int("recipes", stats.Recipes),
		slog.Duration("duration", time.Since(start)))
}
