package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pricing/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PriceMapBuilder rebuilds the POS all-items price map.
type PriceMapBuilder interface {
	RebuildAll(ctx context.Context) (int, error)
}

// POSPriceWarmupJob recomputes cached POS prices so date-scoped entries
// roll over before the first sale of the day.
type POSPriceWarmupJob struct {
	Prices  PriceMapBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewPOSPriceWarmupJob wires dependencies for the warmup handler.
func NewPOSPriceWarmupJob(prices PriceMapBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *POSPriceWarmupJob {
	return &POSPriceWarmupJob{Prices: prices, Logger: logger, Metrics: metrics, Timeout: 5 * time.Minute}
}

// Handle processes TaskPOSPriceWarmup tasks.
func (j *POSPriceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Prices == nil {
		return errors.New("pos price warmup: handler not configured")
	}
	var payload POSPriceWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	metrics := j.metrics()
	tracker := metrics.Track(TaskPOSPriceWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskPOSPriceWarmup).With(slog.String("reason", payload.Reason))
	logger.Info("starting pos price warmup")

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	count, err := j.Prices.RebuildAll(ctx)
	if err != nil {
		resultErr = err
		logger.Error("rebuild pos prices", slog.Any("error", err))
		return resultErr
	}
	metrics.SetPricesWarmed(count)
	logger.Info("completed pos price warmup", slog.Int("items", count), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *POSPriceWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
