// Package itemprices maintains the stored price records the resolver reads.
package itemprices

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

var (
	// ErrNotFound indicates the price record does not exist.
	ErrNotFound = errors.New("itemprices: not found")
	// ErrDuplicate indicates the record conflicts with an existing one.
	ErrDuplicate = errors.New("itemprices: duplicate price")
	// ErrInvalid indicates the input breaks a maintenance rule.
	ErrInvalid = errors.New("itemprices: invalid price")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Input carries the writable fields of a price record.
type Input struct {
	ItemCode   string          `json:"item_code" validate:"required,max=140"`
	Selling    bool            `json:"selling"`
	Buying     bool            `json:"buying"`
	Customer   string          `json:"customer" validate:"max=140"`
	Supplier   string          `json:"supplier" validate:"max=140"`
	IsDefault  bool            `json:"is_default_price"`
	Rate       decimal.Decimal `json:"rate" validate:"-"`
	ValidFrom  *time.Time      `json:"valid_from"`
	ValidUntil *time.Time      `json:"valid_until"`
	Enabled    bool            `json:"enabled"`
}

// ListFilter narrows List results. Zero values do not filter.
type ListFilter struct {
	ItemCode string
	Customer string
	Supplier string
	Selling  *bool
	Buying   *bool
	Limit    int
}

// Scope identifies the records a new or edited record must not overlap.
type Scope struct {
	ItemCode   string
	Selling    bool
	Buying     bool
	IsDefault  bool
	Customer   string
	Supplier   string
	ValidFrom  *time.Time
	ValidUntil *time.Time
	ExcludeID  int64
}

// Repository persists price records.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]pricing.PriceRecord, error)
	Get(ctx context.Context, id int64) (pricing.PriceRecord, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations that run inside one transaction.
type TxRepository interface {
	LockItem(ctx context.Context, itemCode string) error
	GetForUpdate(ctx context.Context, id int64) (pricing.PriceRecord, error)
	HasDefault(ctx context.Context, itemCode string, selling, buying bool, excludeID int64) (bool, error)
	HasOverlap(ctx context.Context, scope Scope) (bool, error)
	Insert(ctx context.Context, in Input) (pricing.PriceRecord, error)
	Update(ctx context.Context, id int64, in Input) (pricing.PriceRecord, error)
	Delete(ctx context.Context, id int64) error
}

// CacheInvalidator drops cached POS prices for an item.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, itemCode, customer string) error
}

// WarmupEnqueuer schedules a rebuild of the POS price map.
type WarmupEnqueuer interface {
	EnqueuePOSPriceWarmup(ctx context.Context) error
}
