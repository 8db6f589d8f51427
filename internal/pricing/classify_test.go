package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDefaultTier(t *testing.T) {
	sellOnly := PriceRecord{Selling: true, IsDefault: true}
	both := PriceRecord{Selling: true, Buying: true, IsDefault: true}

	assert.Equal(t, SourceDefaultForDirection, Classify(TierDirectionDefault, sellOnly, Selling))
	assert.Equal(t, SourceDefaultBothDirections, Classify(TierDirectionDefault, both, Selling))
	assert.Equal(t, SourceDefaultBothDirections, Classify(TierDirectionDefault, both, Buying))
	assert.Equal(t, SourcePartySpecific, Classify(TierPartySpecific, both, Buying))
	assert.Equal(t, SourceGeneral, Classify(TierGeneral, sellOnly, Selling))
}

func TestLabelFollowsDirection(t *testing.T) {
	assert.Equal(t, "customer-specific prices", Label(SourcePartySpecific, Selling))
	assert.Equal(t, "supplier-specific prices", Label(SourcePartySpecific, Buying))
	assert.Equal(t, "default buying prices", Label(SourceDefaultForDirection, Buying))
	assert.Equal(t, "default prices (buy/sell)", Label(SourceDefaultBothDirections, Selling))
	assert.Equal(t, "general selling prices", Label(SourceGeneral, Selling))
	assert.Equal(t, "valuation rates with markup", Label(SourceFallback, Selling))
	assert.Equal(t, "historical purchase rates", Label(SourceFallback, Buying))
}

func TestMessage(t *testing.T) {
	res := Result{Rate: dec("12.5"), Source: SourcePartySpecific}
	assert.Equal(t, "Applied supplier-specific price: 12.50 for SUP-1", Message(res, Buying, "SUP-1"))
	assert.Equal(t, "Applied historical purchase rate: 40.00", Message(Result{Rate: dec("40"), Source: SourceFallback}, Buying, ""))
	assert.Equal(t, ManualRateMessage, Message(Result{Source: SourceNone}, Selling, "CUST-A"))
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Rate: dec("1"), Source: SourcePartySpecific},
		{Rate: dec("2"), Source: SourceGeneral},
		{Rate: dec("3"), Source: SourcePartySpecific},
		{Source: SourceNone},
	}
	want := "Updated pricing for 3 items based on customer CUST-A:\n" +
		"- 2 items using customer-specific prices\n" +
		"- 1 items using general selling prices\n" +
		"- 1 items need a manual rate\n"
	assert.Equal(t, want, Summarize(Selling, "CUST-A", results))
}

func TestSummarizeNothingPriced(t *testing.T) {
	assert.Empty(t, Summarize(Buying, "SUP-1", []Result{{Source: SourceNone}}))
	assert.Empty(t, Summarize(Buying, "", nil))
}
