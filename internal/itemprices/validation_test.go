package itemprices

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

func TestInputCheck(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"zero rate", Input{ItemCode: "A", Selling: true}, "rate"},
		{"negative rate", Input{ItemCode: "A", Selling: true, Rate: dec("-1")}, "rate"},
		{"inverted window", Input{ItemCode: "A", Selling: true, Rate: dec("1"), ValidFrom: day(2025, 3, 2), ValidUntil: day(2025, 3, 1)}, "valid_from"},
		{"no direction", Input{ItemCode: "A", Rate: dec("1")}, "selling"},
		{"default with supplier", Input{ItemCode: "A", Buying: true, IsDefault: true, Supplier: "SUP-1", Rate: dec("1")}, "supplier"},
		{"customer on buying", Input{ItemCode: "A", Buying: true, Customer: "CUST-A", Rate: dec("1")}, "customer"},
		{"supplier on selling", Input{ItemCode: "A", Selling: true, Supplier: "SUP-1", Rate: dec("1")}, "supplier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Check()
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestInputCheckAcceptsSameDayWindow(t *testing.T) {
	from := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	in := Input{ItemCode: "A", Selling: true, Rate: dec("1"), ValidFrom: &from, ValidUntil: day(2025, 3, 1)}
	assert.NoError(t, in.Check())

	both := Input{ItemCode: "A", Selling: true, Buying: true, IsDefault: true, Rate: dec("5")}
	assert.NoError(t, both.Check())
}

func TestScopeMatches(t *testing.T) {
	existing := pricing.PriceRecord{
		ID: 1, ItemCode: "A", Selling: true, Customer: "CUST-A",
		ValidFrom: day(2025, 1, 1), ValidUntil: day(2025, 1, 31),
	}

	scope := sellingInput("A", "CUST-A", "1").Scope(0)
	assert.True(t, scope.Matches(existing), "open window overlaps everything")

	scope.ValidFrom = day(2025, 2, 1)
	assert.False(t, scope.Matches(existing), "starts after existing ends")

	scope.ValidFrom = day(2025, 1, 31)
	assert.True(t, scope.Matches(existing), "shared boundary day overlaps")

	scope.ValidFrom, scope.ValidUntil = nil, day(2024, 12, 31)
	assert.False(t, scope.Matches(existing), "ends before existing starts")

	other := sellingInput("A", "CUST-B", "1").Scope(0)
	assert.False(t, other.Matches(existing))

	self := sellingInput("A", "CUST-A", "1").Scope(1)
	assert.False(t, self.Matches(existing), "excluded id")

	buying := Input{ItemCode: "A", Buying: true, Rate: dec("1")}.Scope(0)
	assert.False(t, buying.Matches(existing), "different direction flags")
}

func TestScopeMatchesDefaultsIgnoreParty(t *testing.T) {
	existing := pricing.PriceRecord{ID: 3, ItemCode: "A", Selling: true, IsDefault: true, Customer: "CUST-A"}
	scope := Input{ItemCode: "A", Selling: true, IsDefault: true, Rate: dec("1")}.Scope(0)
	assert.True(t, scope.Matches(existing))

	nonDefault := pricing.PriceRecord{ID: 4, ItemCode: "A", Selling: true}
	assert.False(t, scope.Matches(nonDefault))
}
