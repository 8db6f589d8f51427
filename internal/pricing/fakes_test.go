package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.Mutex
	records []PriceRecord
	items   map[string]ItemMaster
	queries []PriceQuery
	failOn  map[Tier]error
	itemErr error
}

func newMemoryStore(records ...PriceRecord) *memoryStore {
	return &memoryStore{records: records, items: map[string]ItemMaster{}, failOn: map[Tier]error{}}
}

func (m *memoryStore) QueryPrices(ctx context.Context, q PriceQuery) ([]PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if err := m.failOn[q.Tier]; err != nil {
		return nil, err
	}
	return q.Apply(m.records), nil
}

func (m *memoryStore) ItemMaster(ctx context.Context, itemCode string) (ItemMaster, bool, error) {
	if m.itemErr != nil {
		return ItemMaster{}, false, m.itemErr
	}
	item, ok := m.items[itemCode]
	return item, ok, nil
}

func (m *memoryStore) tiersQueried() []Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	tiers := make([]Tier, 0, len(m.queries))
	for _, q := range m.queries {
		tiers = append(tiers, q.Tier)
	}
	return tiers
}

var (
	today     = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	yesterday = today.AddDate(0, 0, -1)
	tomorrow  = today.AddDate(0, 0, 1)
)

func fixedNow() time.Time { return today }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func datePtr(t time.Time) *time.Time { return &t }

func newTestResolver(store *memoryStore) *Resolver {
	return NewResolver(store, store, Options{Now: fixedNow})
}
