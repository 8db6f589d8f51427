// Package pricing resolves the rate that applies to an item for a counterparty
// on a given date. Prices are looked up in tiers (party-specific, default,
// general) before falling back to item cost data.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction selects whether a price applies to outbound or inbound transactions.
type Direction string

const (
	// Selling prices apply to customers.
	Selling Direction = "Selling"
	// Buying prices apply to suppliers.
	Buying Direction = "Buying"
)

// ErrInvalidDirection is returned when a direction cannot be parsed.
var ErrInvalidDirection = errors.New("pricing: invalid direction")

// ParseDirection accepts "selling"/"buying" in any case.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "selling", "sell":
		return Selling, nil
	case "buying", "buy":
		return Buying, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == Selling || d == Buying
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Selling {
		return Buying
	}
	return Selling
}

// FlagField is the price record column flagging the direction.
func (d Direction) FlagField() Field {
	if d == Selling {
		return FieldSelling
	}
	return FieldBuying
}

// PartyField is the price record column holding the counterparty.
func (d Direction) PartyField() Field {
	if d == Selling {
		return FieldCustomer
	}
	return FieldSupplier
}

// PartyNoun names the counterparty kind for messages.
func (d Direction) PartyNoun() string {
	if d == Selling {
		return "customer"
	}
	return "supplier"
}

// PriceRecord is a stored price quotation.
type PriceRecord struct {
	ID         int64
	ItemCode   string
	Selling    bool
	Buying     bool
	Customer   string
	Supplier   string
	IsDefault  bool
	Rate       decimal.Decimal
	ValidFrom  *time.Time
	ValidUntil *time.Time
	Enabled    bool
	Modified   time.Time
}

// AppliesTo reports whether the record carries the flag for d.
func (r PriceRecord) AppliesTo(d Direction) bool {
	if d == Selling {
		return r.Selling
	}
	return r.Buying
}

// PartyFor returns the counterparty column matching d.
func (r PriceRecord) PartyFor(d Direction) string {
	if d == Selling {
		return r.Customer
	}
	return r.Supplier
}

// ItemMaster carries the cost fields used for fallback pricing.
type ItemMaster struct {
	ItemCode      string
	ValuationRate decimal.Decimal
	// LastTransactionRate is the rate of the most recent purchase.
	LastTransactionRate decimal.Decimal
}

// Request asks for the price of one item.
type Request struct {
	ItemCode  string
	Direction Direction
	Party     string
	// Date is the reference date. Zero means today.
	Date time.Time
}

// Result is the outcome of a resolution.
type Result struct {
	Rate     decimal.Decimal
	Source   SourceTag
	RecordID int64
}

// Found reports whether a usable rate was produced.
func (r Result) Found() bool {
	return r.Source != SourceNone && r.Rate.IsPositive()
}

// PriceStore reads price records.
type PriceStore interface {
	QueryPrices(ctx context.Context, q PriceQuery) ([]PriceRecord, error)
}

// ItemMasterStore reads item cost data. ok is false when the item does not exist.
type ItemMasterStore interface {
	ItemMaster(ctx context.Context, itemCode string) (ItemMaster, bool, error)
}

// ErrStoreUnavailable matches every failure to reach the price store or item master.
var ErrStoreUnavailable = errors.New("pricing: store unavailable")

// StoreError wraps a query failure with the tier that issued it.
type StoreError struct {
	Tier Tier
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("pricing: %s query failed: %v", e.Tier, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStoreUnavailable) match any StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
