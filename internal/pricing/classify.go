package pricing

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SourceTag records which tier produced a rate.
type SourceTag string

const (
	SourcePartySpecific         SourceTag = "PartySpecific"
	SourceDefaultForDirection   SourceTag = "DefaultForDirection"
	SourceDefaultBothDirections SourceTag = "DefaultBothDirections"
	SourceGeneral               SourceTag = "General"
	SourceFallback              SourceTag = "Fallback"
	SourceNone                  SourceTag = "None"
)

// sourceOrder lists tags in tier priority, used for stable summaries.
var sourceOrder = []SourceTag{
	SourcePartySpecific,
	SourceDefaultForDirection,
	SourceDefaultBothDirections,
	SourceGeneral,
	SourceFallback,
	SourceNone,
}

// Classify tags a record that satisfied tier for direction d.
func Classify(tier Tier, rec PriceRecord, d Direction) SourceTag {
	switch tier {
	case TierPartySpecific:
		return SourcePartySpecific
	case TierDirectionDefault:
		if rec.AppliesTo(d.Opposite()) {
			return SourceDefaultBothDirections
		}
		return SourceDefaultForDirection
	case TierGeneral:
		return SourceGeneral
	case TierFallback:
		return SourceFallback
	}
	return SourceNone
}

// Label describes a source in plural form, as used in batch summaries.
func Label(tag SourceTag, d Direction) string {
	switch tag {
	case SourcePartySpecific:
		return d.PartyNoun() + "-specific prices"
	case SourceDefaultForDirection:
		if d == Selling {
			return "default selling prices"
		}
		return "default buying prices"
	case SourceDefaultBothDirections:
		return "default prices (buy/sell)"
	case SourceGeneral:
		if d == Selling {
			return "general selling prices"
		}
		return "general buying prices"
	case SourceFallback:
		if d == Selling {
			return "valuation rates with markup"
		}
		return "historical purchase rates"
	}
	return "no price found"
}

// ManualRateMessage is shown when no rate could be resolved.
const ManualRateMessage = "No price found for this item. Please enter the rate manually."

// Message describes a single line's resolution for the user.
func Message(res Result, d Direction, party string) string {
	rate := res.Rate.StringFixed(2)
	switch res.Source {
	case SourcePartySpecific:
		msg := "Applied " + d.PartyNoun() + "-specific price: " + rate
		if party != "" {
			msg += " for " + party
		}
		return msg
	case SourceDefaultForDirection:
		if d == Selling {
			return "Applied default selling price: " + rate
		}
		return "Applied default buying price: " + rate
	case SourceDefaultBothDirections:
		return "Applied default price: " + rate
	case SourceGeneral:
		if d == Selling {
			return "Applied general selling price: " + rate
		}
		return "Applied general buying price: " + rate
	case SourceFallback:
		if d == Selling {
			return "Applied valuation rate with markup: " + rate
		}
		return "Applied historical purchase rate: " + rate
	}
	return ManualRateMessage
}

// Summarize reports how many lines were priced from each source. It returns an
// empty string when nothing was priced.
func Summarize(d Direction, party string, results []Result) string {
	counts := make(map[SourceTag]int, len(sourceOrder))
	updated := 0
	for _, res := range results {
		if res.Found() {
			counts[res.Source]++
			updated++
			continue
		}
		counts[SourceNone]++
	}
	if updated == 0 {
		return ""
	}

	p := message.NewPrinter(language.English)
	var b strings.Builder
	if party != "" {
		b.WriteString(p.Sprintf("Updated pricing for %d items based on %s %s:\n", updated, d.PartyNoun(), party))
	} else {
		b.WriteString(p.Sprintf("Updated pricing for %d items:\n", updated))
	}
	for _, tag := range sourceOrder {
		n := counts[tag]
		if n == 0 {
			continue
		}
		if tag == SourceNone {
			b.WriteString(p.Sprintf("- %d items need a manual rate\n", n))
			continue
		}
		b.WriteString(p.Sprintf("- %d items using %s\n", n, Label(tag, d)))
	}
	return b.String()
}
