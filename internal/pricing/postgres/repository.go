// Package postgres implements the pricing store ports on top of PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

// columns maps query fields to item_prices columns.
var columns = map[pricing.Field]string{
	pricing.FieldID:        "id",
	pricing.FieldItemCode:  "item_code",
	pricing.FieldSelling:   "selling",
	pricing.FieldBuying:    "buying",
	pricing.FieldCustomer:  "customer",
	pricing.FieldSupplier:  "supplier",
	pricing.FieldIsDefault: "is_default_price",
	pricing.FieldEnabled:   "enabled",
	pricing.FieldModified:  "modified",
}

// RecordColumns is the column list ScanRecord expects.
const RecordColumns = `id, item_code, selling, buying, COALESCE(customer, ''), COALESCE(supplier, ''),
	is_default_price, price_list_rate::text, valid_from, valid_upto, enabled, modified`

const selectPrices = "SELECT " + RecordColumns + " FROM item_prices"

// Repository reads price records and item master rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// QueryPrices runs a tier query.
func (r *Repository) QueryPrices(ctx context.Context, q pricing.PriceQuery) ([]pricing.PriceRecord, error) {
	sql, args, err := BuildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pricing/postgres: query prices: %w", err)
	}
	defer rows.Close()

	var records []pricing.PriceRecord
	for rows.Next() {
		rec, err := ScanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ItemMaster loads the cost fields of an item.
func (r *Repository) ItemMaster(ctx context.Context, itemCode string) (pricing.ItemMaster, bool, error) {
	const query = `SELECT item_code, COALESCE(valuation_rate, 0)::text, COALESCE(last_purchase_rate, 0)::text
FROM items WHERE item_code = $1`
	var (
		item                pricing.ItemMaster
		valuation, lastRate string
	)
	err := r.pool.QueryRow(ctx, query, itemCode).Scan(&item.ItemCode, &valuation, &lastRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.ItemMaster{}, false, nil
		}
		return pricing.ItemMaster{}, false, fmt.Errorf("pricing/postgres: item master: %w", err)
	}
	if item.ValuationRate, err = decimal.NewFromString(valuation); err != nil {
		return pricing.ItemMaster{}, false, fmt.Errorf("pricing/postgres: valuation rate: %w", err)
	}
	if item.LastTransactionRate, err = decimal.NewFromString(lastRate); err != nil {
		return pricing.ItemMaster{}, false, fmt.Errorf("pricing/postgres: last purchase rate: %w", err)
	}
	return item, true, nil
}

// SellingItemCodes lists items that carry at least one enabled selling price.
func (r *Repository) SellingItemCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT item_code FROM item_prices WHERE selling AND enabled ORDER BY item_code`)
	if err != nil {
		return nil, fmt.Errorf("pricing/postgres: selling item codes: %w", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// BuildSelect renders q as a parameterised SELECT over item_prices.
func BuildSelect(q pricing.PriceQuery) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range q.Conditions {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("pricing/postgres: unsupported field %q", c.Field)
		}
		switch c.Op {
		case pricing.OpEq:
			args = append(args, c.Value)
			where = append(where, col+" = $"+strconv.Itoa(len(args)))
		case pricing.OpBlank:
			where = append(where, "COALESCE("+col+", '') = ''")
		default:
			return "", nil, fmt.Errorf("pricing/postgres: unsupported operator %q", c.Op)
		}
	}

	var b strings.Builder
	b.WriteString(selectPrices)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(q.OrderBy) > 0 {
		order := make([]string, 0, len(q.OrderBy))
		for _, s := range q.OrderBy {
			col, ok := columns[s.Field]
			if !ok {
				return "", nil, fmt.Errorf("pricing/postgres: unsupported sort field %q", s.Field)
			}
			if s.Desc {
				order = append(order, col+" DESC")
			} else {
				order = append(order, col+" ASC")
			}
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return b.String(), args, nil
}

// ScanRecord reads one row selected with RecordColumns.
func ScanRecord(row pgx.Row) (pricing.PriceRecord, error) {
	var (
		rec        pricing.PriceRecord
		rate       string
		validFrom  *time.Time
		validUntil *time.Time
	)
	if err := row.Scan(
		&rec.ID, &rec.ItemCode, &rec.Selling, &rec.Buying, &rec.Customer, &rec.Supplier,
		&rec.IsDefault, &rate, &validFrom, &validUntil, &rec.Enabled, &rec.Modified,
	); err != nil {
		return pricing.PriceRecord{}, fmt.Errorf("pricing/postgres: scan price: %w", err)
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return pricing.PriceRecord{}, fmt.Errorf("pricing/postgres: price %d rate: %w", rec.ID, err)
	}
	rec.Rate = d
	rec.ValidFrom = validFrom
	rec.ValidUntil = validUntil
	return rec, nil
}
