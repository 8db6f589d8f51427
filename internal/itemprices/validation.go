package itemprices

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

// Normalize trims identifiers.
func (in Input) Normalize() Input {
	in.ItemCode = strings.TrimSpace(in.ItemCode)
	in.Customer = strings.TrimSpace(in.Customer)
	in.Supplier = strings.TrimSpace(in.Supplier)
	return in
}

// Check applies the record-level rules that need no store access.
func (in Input) Check() error {
	if !in.Rate.IsPositive() {
		return &ValidationError{Field: "rate", Message: "Price List Rate must be greater than zero"}
	}
	if in.ValidFrom != nil && in.ValidUntil != nil &&
		pricing.CalendarDate(*in.ValidFrom).After(pricing.CalendarDate(*in.ValidUntil)) {
		return &ValidationError{Field: "valid_from", Message: "Valid From date cannot be after Valid Until date"}
	}
	if !in.Buying && !in.Selling {
		return &ValidationError{Field: "selling", Message: "At least one of Buying or Selling must be checked"}
	}
	if in.IsDefault && in.Supplier != "" {
		return &ValidationError{Field: "supplier", Message: "Supplier cannot be set for a default price"}
	}
	if in.Customer != "" && !in.Selling {
		return &ValidationError{Field: "customer", Message: "Customer can only be set for selling prices"}
	}
	if in.Supplier != "" && !in.Buying {
		return &ValidationError{Field: "supplier", Message: "Supplier can only be set for buying prices"}
	}
	return nil
}

// Scope returns the duplicate scope of in, ignoring the record excludeID.
func (in Input) Scope(excludeID int64) Scope {
	return Scope{
		ItemCode:   in.ItemCode,
		Selling:    in.Selling,
		Buying:     in.Buying,
		IsDefault:  in.IsDefault,
		Customer:   in.Customer,
		Supplier:   in.Supplier,
		ValidFrom:  in.ValidFrom,
		ValidUntil: in.ValidUntil,
		ExcludeID:  excludeID,
	}
}

// Matches reports whether rec would duplicate a record described by s.
// Default records clash with other defaults regardless of party; other
// records clash when both parties match. Validity windows overlap when
// neither ends before the other starts, with missing bounds open-ended.
func (s Scope) Matches(rec pricing.PriceRecord) bool {
	if rec.ID == s.ExcludeID || rec.ItemCode != s.ItemCode ||
		rec.Selling != s.Selling || rec.Buying != s.Buying {
		return false
	}
	if s.IsDefault {
		if !rec.IsDefault {
			return false
		}
	} else if rec.Customer != s.Customer || rec.Supplier != s.Supplier {
		return false
	}
	if s.ValidFrom != nil && rec.ValidUntil != nil &&
		pricing.CalendarDate(*rec.ValidUntil).Before(pricing.CalendarDate(*s.ValidFrom)) {
		return false
	}
	if s.ValidUntil != nil && rec.ValidFrom != nil &&
		pricing.CalendarDate(*rec.ValidFrom).After(pricing.CalendarDate(*s.ValidUntil)) {
		return false
	}
	return true
}

func defaultConflict(in Input) error {
	return fmt.Errorf("%w: item %s already has a default %s price; only one default price per type is allowed per item",
		ErrDuplicate, in.ItemCode, priceType(in))
}

func overlapConflict(in Input) error {
	kind := priceType(in)
	if in.IsDefault {
		kind = "default " + kind
	}
	party := ""
	switch {
	case in.Customer != "":
		party = " for customer " + in.Customer
	case in.Supplier != "":
		party = " for supplier " + in.Supplier
	}
	return fmt.Errorf("%w: item %s already has a %s price%s that is effective during this period",
		ErrDuplicate, in.ItemCode, kind, party)
}

func priceType(in Input) string {
	if in.Buying {
		return "buying"
	}
	return "selling"
}
