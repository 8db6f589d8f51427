package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pricing/internal/jobs"
)

// PriceCacheInvalidator drops cached POS prices.
type PriceCacheInvalidator interface {
	Invalidate(ctx context.Context, itemCode, customer string) error
	InvalidateAll(ctx context.Context) (int, error)
}

// POSPriceInvalidateJob clears POS price cache entries.
type POSPriceInvalidateJob struct {
	Cache   PriceCacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPOSPriceInvalidateJob wires dependencies for the invalidation handler.
func NewPOSPriceInvalidateJob(cache PriceCacheInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *POSPriceInvalidateJob {
	return &POSPriceInvalidateJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes TaskPOSPriceInvalidate tasks.
func (j *POSPriceInvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("pos price invalidate: handler not configured")
	}
	var payload POSPriceInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskPOSPriceInvalidate)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskPOSPriceInvalidate)
	if payload.ItemCode == "" {
		removed, err := j.Cache.InvalidateAll(ctx)
		if err != nil {
			resultErr = err
			logger.Error("invalidate all pos prices", slog.Any("error", err))
			return resultErr
		}
		logger.Info("invalidated all pos prices", slog.Int("keys", removed))
		return resultErr
	}

	if err := j.Cache.Invalidate(ctx, payload.ItemCode, payload.Customer); err != nil {
		resultErr = err
		logger.Error("invalidate pos prices", slog.String("item_code", payload.ItemCode), slog.Any("error", err))
		return resultErr
	}
	logger.Info("invalidated pos prices", slog.String("item_code", payload.ItemCode), slog.String("customer", payload.Customer))
	return resultErr
}
