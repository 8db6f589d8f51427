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

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pricing/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-pricing/internal/jobs"
	"github.com/odyssey-erp/odyssey-pricing/internal/observability"
	"github.com/odyssey-erp/odyssey-pricing/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pricing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pricing/internal/pos"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
	pricingpg "github.com/odyssey-erp/odyssey-pricing/internal/pricing/postgres"
	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

// warmupSpec runs just after midnight so date-scoped cache entries roll over.
const warmupSpec = "5 0 * * *"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, db.PoolConfig{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil || redisClient == nil {
		logger.Error("worker requires redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	priceRepo := pricingpg.NewRepository(pool)
	resolver := pricing.NewResolver(priceRepo, priceRepo, pricing.Options{
		Logger:           logger.With(slog.String("component", "pricing")),
		Recorder:         metrics,
		BatchConcurrency: cfg.PricingBatchConcurrency,
	})
	posCache := pos.NewCache(redisClient, cfg.POSPriceCacheTTL, cfg.POSAllPricesTTL)
	posService := pos.NewService(resolver, priceRepo, pos.Options{Cache: posCache, Logger: logger})

	warmupJob := jobs.NewPOSPriceWarmupJob(posService, logger, jobMetrics)
	invalidateJob := jobs.NewPOSPriceInvalidateJob(posService, logger, jobMetrics)

	warmupTask, err := jobs.NewPOSPriceWarmupTask("scheduled")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPOSPriceWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskPOSPriceInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: warmupSpec, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := newMetricsServer(cfg.WorkerMetricsAddr, metrics)
	go func() {
		logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// newMetricsServer exposes job and resolution metrics for scraping.
func newMetricsServer(addr string, metrics *observability.Metrics) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}
