package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackPrefersLastTransactionRate(t *testing.T) {
	store := newMemoryStore()
	store.items["A"] = ItemMaster{ItemCode: "A", ValuationRate: dec("80"), LastTransactionRate: dec("95.50")}
	p := NewFallbackProvider(store)

	res, err := p.Rate(context.Background(), "A", Buying)
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(dec("95.50")))
	assert.Equal(t, SourceFallback, res.Source)
}

func TestFallbackMarkupLaw(t *testing.T) {
	store := newMemoryStore()
	store.items["A"] = ItemMaster{ItemCode: "A", LastTransactionRate: dec("33.33")}
	store.items["B"] = ItemMaster{ItemCode: "B", ValuationRate: dec("0.10")}
	p := NewFallbackProvider(store)

	for _, code := range []string{"A", "B"} {
		buy, err := p.Rate(context.Background(), code, Buying)
		require.NoError(t, err)
		sell, err := p.Rate(context.Background(), code, Selling)
		require.NoError(t, err)
		assert.True(t, sell.Rate.Equal(buy.Rate.Mul(dec("1.2"))), "%s: %s != %s * 1.2", code, sell.Rate, buy.Rate)
	}
	sell, _ := p.Rate(context.Background(), "A", Selling)
	assert.Equal(t, "39.996", sell.Rate.String())
}

func TestFallbackZeroBaseIsNone(t *testing.T) {
	store := newMemoryStore()
	store.items["A"] = ItemMaster{ItemCode: "A"}
	p := NewFallbackProvider(store)

	for _, d := range []Direction{Buying, Selling} {
		res, err := p.Rate(context.Background(), "A", d)
		require.NoError(t, err)
		assert.Equal(t, SourceNone, res.Source)
		assert.True(t, res.Rate.IsZero())
	}

	res, err := p.Rate(context.Background(), "MISSING", Selling)
	require.NoError(t, err)
	assert.Equal(t, SourceNone, res.Source)
}

func TestFallbackNilProvider(t *testing.T) {
	var p *FallbackProvider
	base, err := p.BaseRate(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, base.IsZero())
}
