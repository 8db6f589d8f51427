package itemprices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Service validates and stores price records, keeping the POS cache fresh.
type Service struct {
	repo     Repository
	cache    CacheInvalidator
	jobs     WarmupEnqueuer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs Service. cache and jobs may be nil.
func NewService(repo Repository, cache CacheInvalidator, jobs WarmupEnqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		jobs:     jobs,
		validate: httpx.NewValidator(),
		logger:   logger,
	}
}

// List returns price records newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]pricing.PriceRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, filter)
}

// Get returns one price record.
func (s *Service) Get(ctx context.Context, id int64) (pricing.PriceRecord, error) {
	if id <= 0 {
		return pricing.PriceRecord{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a price record.
func (s *Service) Create(ctx context.Context, in Input) (pricing.PriceRecord, error) {
	in, err := s.prepare(in)
	if err != nil {
		return pricing.PriceRecord{}, err
	}

	var created pricing.PriceRecord
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockItem(ctx, in.ItemCode); err != nil {
			return err
		}
		if err := checkConflicts(ctx, tx, in, 0); err != nil {
			return err
		}
		rec, err := tx.Insert(ctx, in)
		if err != nil {
			return err
		}
		created = rec
		return nil
	})
	if err != nil {
		return pricing.PriceRecord{}, err
	}

	s.afterChange(ctx, "create", created, created.ItemCode, created.Customer)
	return created, nil
}

// Update replaces the writable fields of record id.
func (s *Service) Update(ctx context.Context, id int64, in Input) (pricing.PriceRecord, error) {
	if id <= 0 {
		return pricing.PriceRecord{}, ErrNotFound
	}
	in, err := s.prepare(in)
	if err != nil {
		return pricing.PriceRecord{}, err
	}

	var before, updated pricing.PriceRecord
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = current
		if err := tx.LockItem(ctx, in.ItemCode); err != nil {
			return err
		}
		if err := checkConflicts(ctx, tx, in, id); err != nil {
			return err
		}
		rec, err := tx.Update(ctx, id, in)
		if err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return pricing.PriceRecord{}, err
	}

	if before.ItemCode != updated.ItemCode || before.Customer != updated.Customer {
		s.invalidate(ctx, before.ItemCode, before.Customer)
	}
	s.afterChange(ctx, "update", updated, updated.ItemCode, updated.Customer)
	return updated, nil
}

// Delete removes record id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	var removed pricing.PriceRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		removed = rec
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.afterChange(ctx, "delete", removed, removed.ItemCode, removed.Customer)
	return nil
}

func (s *Service) prepare(in Input) (Input, error) {
	in = in.Normalize()
	if err := httpx.ValidateStruct(s.validate, in); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := in.Check(); err != nil {
		return Input{}, err
	}
	return in, nil
}

func checkConflicts(ctx context.Context, tx TxRepository, in Input, excludeID int64) error {
	if in.IsDefault {
		exists, err := tx.HasDefault(ctx, in.ItemCode, in.Selling, in.Buying, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return defaultConflict(in)
		}
	}
	overlap, err := tx.HasOverlap(ctx, in.Scope(excludeID))
	if err != nil {
		return err
	}
	if overlap {
		return overlapConflict(in)
	}
	return nil
}

// afterChange runs once the transaction has committed. Failures are logged
// only; the stored record is already authoritative.
func (s *Service) afterChange(ctx context.Context, action string, rec pricing.PriceRecord, itemCode, customer string) {
	s.logger.InfoContext(ctx, "item price "+action+"d",
		slog.Int64("id", rec.ID),
		slog.String("item_code", rec.ItemCode),
		slog.String("rate", rec.Rate.String()),
	)
	s.invalidate(ctx, itemCode, customer)
	if s.jobs == nil {
		return
	}
	if err := s.jobs.EnqueuePOSPriceWarmup(ctx); err != nil {
		s.logger.WarnContext(ctx, "enqueue pos price warmup", slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context, itemCode, customer string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, itemCode, customer); err != nil {
		s.logger.WarnContext(ctx, "invalidate pos price cache",
			slog.String("item_code", itemCode),
			slog.Any("error", err),
		)
	}
}
