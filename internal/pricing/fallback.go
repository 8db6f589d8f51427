package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// SellingMarkup is applied to the cost base when a selling price has to be
// estimated from item master data.
// TODO: make the markup configurable per company once pricing policies are stored.
var SellingMarkup = decimal.RequireFromString("1.20")

// FallbackProvider derives a rate from item master cost fields.
type FallbackProvider struct {
	items ItemMasterStore
}

// NewFallbackProvider constructs a FallbackProvider.
func NewFallbackProvider(items ItemMasterStore) *FallbackProvider {
	return &FallbackProvider{items: items}
}

// BaseRate returns the last transaction rate, or the valuation rate when no
// transaction rate is recorded. Zero when the item is unknown.
func (p *FallbackProvider) BaseRate(ctx context.Context, itemCode string) (decimal.Decimal, error) {
	if p == nil || p.items == nil {
		return decimal.Zero, nil
	}
	item, ok, err := p.items.ItemMaster(ctx, itemCode)
	if err != nil {
		return decimal.Zero, &StoreError{Tier: TierFallback, Err: err}
	}
	if !ok {
		return decimal.Zero, nil
	}
	if item.LastTransactionRate.IsPositive() {
		return item.LastTransactionRate, nil
	}
	if item.ValuationRate.IsPositive() {
		return item.ValuationRate, nil
	}
	return decimal.Zero, nil
}

// Rate returns the fallback result for itemCode in direction d.
func (p *FallbackProvider) Rate(ctx context.Context, itemCode string, d Direction) (Result, error) {
	base, err := p.BaseRate(ctx, itemCode)
	if err != nil {
		return Result{}, err
	}
	if !base.IsPositive() {
		return Result{Rate: decimal.Zero, Source: SourceNone}, nil
	}
	if d == Selling {
		return Result{Rate: base.Mul(SellingMarkup), Source: SourceFallback}, nil
	}
	return Result{Rate: base, Source: SourceFallback}, nil
}
