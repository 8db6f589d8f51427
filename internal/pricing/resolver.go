package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Recorder receives one observation per completed resolution.
type Recorder interface {
	ObserveResolution(direction, source string, elapsed time.Duration)
}

// Options tune a Resolver. Zero values are usable.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder
	// Now supplies "today" for requests without a date.
	Now func() time.Time
	// BatchConcurrency bounds parallel resolutions in ResolveBatch.
	BatchConcurrency int
}

const defaultBatchConcurrency = 8

// Resolver runs the tiered price lookup. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	prices      PriceStore
	fallback    *FallbackProvider
	logger      *slog.Logger
	recorder    Recorder
	now         func() time.Time
	concurrency int
}

// NewResolver wires a Resolver to its stores.
func NewResolver(prices PriceStore, items ItemMasterStore, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	concurrency := opts.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &Resolver{
		prices:      prices,
		fallback:    NewFallbackProvider(items),
		logger:      logger,
		recorder:    opts.Recorder,
		now:         now,
		concurrency: concurrency,
	}
}

var priceTiers = []Tier{TierPartySpecific, TierDirectionDefault, TierGeneral}

// Resolve returns the price for req. A missing price is reported as a
// SourceNone result with a zero rate, never as an error; errors are store
// failures (matching ErrStoreUnavailable) or an invalid direction.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	if !req.Direction.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidDirection, string(req.Direction))
	}
	start := time.Now()
	if req.Date.IsZero() {
		req.Date = r.now()
	}
	res, err := r.resolve(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if r.recorder != nil {
		r.recorder.ObserveResolution(string(req.Direction), string(res.Source), time.Since(start))
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req Request) (Result, error) {
	if req.ItemCode == "" {
		return Result{Rate: decimal.Zero, Source: SourceNone}, nil
	}
	for _, tier := range priceTiers {
		res, ok, err := r.tryTier(ctx, tier, req)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return res, nil
		}
		r.logger.DebugContext(ctx, "price tier missed",
			slog.String("item_code", req.ItemCode),
			slog.String("direction", string(req.Direction)),
			slog.String("tier", tier.String()),
		)
	}
	return r.fallback.Rate(ctx, req.ItemCode, req.Direction)
}

// tryTier queries one tier and returns the first valid candidate. ok is false
// when the tier should be skipped or yielded nothing usable.
func (r *Resolver) tryTier(ctx context.Context, tier Tier, req Request) (Result, bool, error) {
	q, ok := BuildTierQuery(tier, req)
	if !ok {
		return Result{}, false, nil
	}
	records, err := r.prices.QueryPrices(ctx, q)
	if err != nil {
		return Result{}, false, &StoreError{Tier: tier, Err: err}
	}
	for _, rec := range records {
		if !eligible(tier, rec, req) || !IsValid(rec, req.Date) {
			continue
		}
		return Result{
			Rate:     rec.Rate,
			Source:   Classify(tier, rec, req.Direction),
			RecordID: rec.ID,
		}, true, nil
	}
	return Result{}, false, nil
}

// eligible re-checks the predicates a store is expected to have applied.
func eligible(tier Tier, rec PriceRecord, req Request) bool {
	if !rec.Enabled || !rec.AppliesTo(req.Direction) || rec.Rate.IsNegative() {
		return false
	}
	switch tier {
	case TierPartySpecific:
		return rec.PartyFor(req.Direction) == req.Party
	case TierDirectionDefault:
		return rec.IsDefault
	case TierGeneral:
		return rec.PartyFor(req.Direction) == ""
	}
	return false
}

// ResolveBatch resolves reqs concurrently. Results keep the order of reqs.
// The first failure cancels the remaining work and no results are returned.
func (r *Resolver) ResolveBatch(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range reqs {
		g.Go(func() error {
			res, err := r.Resolve(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("pricing: resolve %s: %w", reqs[i].ItemCode, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
