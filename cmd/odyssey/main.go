package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pricing/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-pricing/internal/app"
	"github.com/odyssey-erp/odyssey-pricing/internal/itemprices"
	"github.com/odyssey-erp/odyssey-pricing/internal/observability"
	"github.com/odyssey-erp/odyssey-pricing/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pricing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pricing/internal/pos"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
	pricinghttp "github.com/odyssey-erp/odyssey-pricing/internal/pricing/http"
	pricingpg "github.com/odyssey-erp/odyssey-pricing/internal/pricing/postgres"
	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	dbpool, err := db.New(ctx, db.PoolConfig{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// POS prices are computed directly without Redis.
		logger.Warn("redis unavailable, pos price cache disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	priceRepo := pricingpg.NewRepository(dbpool)
	resolver := pricing.NewResolver(priceRepo, priceRepo, pricing.Options{
		Logger:           logger.With(slog.String("component", "pricing")),
		Recorder:         metrics,
		BatchConcurrency: cfg.PricingBatchConcurrency,
	})

	posCache := pos.NewCache(redisClient, cfg.POSPriceCacheTTL, cfg.POSAllPricesTTL)
	posService := pos.NewService(resolver, priceRepo, pos.Options{Cache: posCache, Logger: logger})

	var (
		jobClient *jobs.Client
		inspector *asynq.Inspector
		warmups   itemprices.WarmupEnqueuer
	)
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient, err = jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		warmups = jobClient
		inspector = asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	itemPriceService := itemprices.NewService(itemprices.NewRepository(dbpool), posService, warmups, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		PricingHandler:    pricinghttp.NewHandler(logger, resolver),
		ItemPricesHandler: itemprices.NewHandler(logger, itemPriceService),
		POSHandler:        pos.NewHandler(logger, posService),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runJobsCommand handles `odyssey jobs trigger <task> [item] [customer]`,
// `odyssey jobs stats` and `odyssey jobs scheduled [size]`.
func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: odyssey jobs trigger <task> [item] [customer] | odyssey jobs stats | odyssey jobs scheduled [size]")
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: odyssey jobs trigger <task> [item] [customer]")
		}
		info, err := jobsCLI.Trigger(ctx, args[1], args[2:]...)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		size := 0
		if len(args) > 1 {
			if size, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid size %q: %w", args[1], err)
			}
		}
		tasks, err := jobsCLI.ListScheduled(ctx, size)
		if err != nil {
			return err
		}
		for _, info := range tasks {
			fmt.Printf("%s id=%s next=%s\n", info.Type, info.ID, info.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
	return nil
}
