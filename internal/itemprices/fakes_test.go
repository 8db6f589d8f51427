package itemprices

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

type memoryRepo struct {
	records map[int64]pricing.PriceRecord
	nextID  int64
	locked  []string
}

func newMemoryRepo(seed ...pricing.PriceRecord) *memoryRepo {
	r := &memoryRepo{records: make(map[int64]pricing.PriceRecord)}
	for _, rec := range seed {
		if rec.ID > r.nextID {
			r.nextID = rec.ID
		}
		r.records[rec.ID] = rec
	}
	return r
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]pricing.PriceRecord, error) {
	out := make([]pricing.PriceRecord, 0)
	for _, rec := range r.records {
		if filter.ItemCode != "" && rec.ItemCode != filter.ItemCode {
			continue
		}
		if filter.Customer != "" && rec.Customer != filter.Customer {
			continue
		}
		if filter.Supplier != "" && rec.Supplier != filter.Supplier {
			continue
		}
		if filter.Selling != nil && rec.Selling != *filter.Selling {
			continue
		}
		if filter.Buying != nil && rec.Buying != *filter.Buying {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (pricing.PriceRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return pricing.PriceRecord{}, ErrNotFound
	}
	return rec, nil
}

// WithTx applies fn against a copy and keeps it only when fn succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]pricing.PriceRecord, len(r.records))
	for id, rec := range r.records {
		snapshot[id] = rec
	}
	nextID := r.nextID
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.records = snapshot
		r.nextID = nextID
		return err
	}
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) LockItem(ctx context.Context, itemCode string) error {
	t.repo.locked = append(t.repo.locked, itemCode)
	return nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id int64) (pricing.PriceRecord, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) HasDefault(ctx context.Context, itemCode string, selling, buying bool, excludeID int64) (bool, error) {
	for _, rec := range t.repo.records {
		if rec.ID != excludeID && rec.ItemCode == itemCode && rec.IsDefault &&
			rec.Selling == selling && rec.Buying == buying {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) HasOverlap(ctx context.Context, scope Scope) (bool, error) {
	for _, rec := range t.repo.records {
		if scope.Matches(rec) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) Insert(ctx context.Context, in Input) (pricing.PriceRecord, error) {
	t.repo.nextID++
	rec := recordFrom(t.repo.nextID, in)
	t.repo.records[rec.ID] = rec
	return rec, nil
}

func (t *memoryTx) Update(ctx context.Context, id int64, in Input) (pricing.PriceRecord, error) {
	if _, ok := t.repo.records[id]; !ok {
		return pricing.PriceRecord{}, ErrNotFound
	}
	rec := recordFrom(id, in)
	t.repo.records[id] = rec
	return rec, nil
}

func (t *memoryTx) Delete(ctx context.Context, id int64) error {
	if _, ok := t.repo.records[id]; !ok {
		return ErrNotFound
	}
	delete(t.repo.records, id)
	return nil
}

func recordFrom(id int64, in Input) pricing.PriceRecord {
	return pricing.PriceRecord{
		ID:         id,
		ItemCode:   in.ItemCode,
		Selling:    in.Selling,
		Buying:     in.Buying,
		Customer:   in.Customer,
		Supplier:   in.Supplier,
		IsDefault:  in.IsDefault,
		Rate:       in.Rate,
		ValidFrom:  in.ValidFrom,
		ValidUntil: in.ValidUntil,
		Enabled:    in.Enabled,
		Modified:   time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

type invalidation struct {
	item, customer string
}

type recordingCache struct {
	calls []invalidation
	err   error
}

func (c *recordingCache) Invalidate(ctx context.Context, itemCode, customer string) error {
	c.calls = append(c.calls, invalidation{itemCode, customer})
	return c.err
}

type countingJobs struct {
	warmups int
	err     error
}

func (j *countingJobs) EnqueuePOSPriceWarmup(ctx context.Context) error {
	j.warmups++
	return j.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sellingInput(item, customer, rate string) Input {
	return Input{ItemCode: item, Selling: true, Customer: customer, Rate: dec(rate), Enabled: true}
}
