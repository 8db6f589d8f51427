package itemprices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
	pricingpg "github.com/odyssey-erp/odyssey-pricing/internal/pricing/postgres"
)

// defaultPriceIndex enforces one default per item and direction pair.
const defaultPriceIndex = "item_prices_default_uniq"

// PostgresRepository stores price records in item_prices.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns records matching filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]pricing.PriceRecord, error) {
	q := pricing.PriceQuery{
		OrderBy: []pricing.Sort{{Field: pricing.FieldModified, Desc: true}, {Field: pricing.FieldID, Desc: true}},
		Limit:   filter.Limit,
	}
	eq := func(f pricing.Field, v any) {
		q.Conditions = append(q.Conditions, pricing.Condition{Field: f, Op: pricing.OpEq, Value: v})
	}
	if filter.ItemCode != "" {
		eq(pricing.FieldItemCode, filter.ItemCode)
	}
	if filter.Customer != "" {
		eq(pricing.FieldCustomer, filter.Customer)
	}
	if filter.Supplier != "" {
		eq(pricing.FieldSupplier, filter.Supplier)
	}
	if filter.Selling != nil {
		eq(pricing.FieldSelling, *filter.Selling)
	}
	if filter.Buying != nil {
		eq(pricing.FieldBuying, *filter.Buying)
	}
	sql, args, err := pricingpg.BuildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("itemprices: list: %w", err)
	}
	defer rows.Close()

	records := make([]pricing.PriceRecord, 0)
	for rows.Next() {
		rec, err := pricingpg.ScanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get loads one record.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (pricing.PriceRecord, error) {
	return getRecord(ctx, r.pool, id, false)
}

// WithTx runs fn in a repeatable-read transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRecord(ctx context.Context, q querier, id int64, lock bool) (pricing.PriceRecord, error) {
	sql := "SELECT " + pricingpg.RecordColumns + " FROM item_prices WHERE id = $1"
	if lock {
		sql += " FOR UPDATE"
	}
	rec, err := pricingpg.ScanRecord(q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.PriceRecord{}, ErrNotFound
	}
	return rec, err
}

type txRepo struct {
	tx pgx.Tx
}

// LockItem serialises maintenance of one item's prices until commit.
func (t *txRepo) LockItem(ctx context.Context, itemCode string) error {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, itemCode); err != nil {
		return fmt.Errorf("itemprices: lock item: %w", err)
	}
	return nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (pricing.PriceRecord, error) {
	return getRecord(ctx, t.tx, id, true)
}

func (t *txRepo) HasDefault(ctx context.Context, itemCode string, selling, buying bool, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM item_prices
	WHERE item_code = $1 AND is_default_price AND selling = $2 AND buying = $3 AND id <> $4
)`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, itemCode, selling, buying, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("itemprices: default lookup: %w", err)
	}
	return exists, nil
}

func (t *txRepo) HasOverlap(ctx context.Context, s Scope) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM item_prices
	WHERE item_code = $1 AND selling = $2 AND buying = $3 AND id <> $4
	  AND (($5 AND is_default_price)
	    OR (NOT $5 AND COALESCE(customer, '') = $6 AND COALESCE(supplier, '') = $7))
	  AND ($8::date IS NULL OR valid_upto IS NULL OR valid_upto >= $8::date)
	  AND ($9::date IS NULL OR valid_from IS NULL OR valid_from <= $9::date)
)`
	var exists bool
	err := t.tx.QueryRow(ctx, query,
		s.ItemCode, s.Selling, s.Buying, s.ExcludeID,
		s.IsDefault, s.Customer, s.Supplier,
		dateArg(s.ValidFrom), dateArg(s.ValidUntil),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("itemprices: overlap lookup: %w", err)
	}
	return exists, nil
}

func (t *txRepo) Insert(ctx context.Context, in Input) (pricing.PriceRecord, error) {
	query := `INSERT INTO item_prices
	(item_code, selling, buying, customer, supplier, is_default_price, price_list_rate, valid_from, valid_upto, enabled, modified)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7::numeric, $8, $9, $10, now())
RETURNING ` + pricingpg.RecordColumns
	rec, err := pricingpg.ScanRecord(t.tx.QueryRow(ctx, query, writeArgs(in)...))
	if err != nil {
		return pricing.PriceRecord{}, mapWriteError(err)
	}
	return rec, nil
}

func (t *txRepo) Update(ctx context.Context, id int64, in Input) (pricing.PriceRecord, error) {
	query := `UPDATE item_prices SET
	item_code = $1, selling = $2, buying = $3, customer = NULLIF($4, ''), supplier = NULLIF($5, ''),
	is_default_price = $6, price_list_rate = $7::numeric, valid_from = $8, valid_upto = $9, enabled = $10,
	modified = now()
WHERE id = $11
RETURNING ` + pricingpg.RecordColumns
	args := append(writeArgs(in), id)
	rec, err := pricingpg.ScanRecord(t.tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.PriceRecord{}, ErrNotFound
	}
	if err != nil {
		return pricing.PriceRecord{}, mapWriteError(err)
	}
	return rec, nil
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM item_prices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("itemprices: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func writeArgs(in Input) []any {
	return []any{
		in.ItemCode, in.Selling, in.Buying, in.Customer, in.Supplier,
		in.IsDefault, in.Rate.String(), dateArg(in.ValidFrom), dateArg(in.ValidUntil), in.Enabled,
	}
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return pricing.CalendarDate(*t)
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, defaultPriceIndex) {
		return fmt.Errorf("%w: only one default price per type is allowed per item", ErrDuplicate)
	}
	return fmt.Errorf("itemprices: write: %w", err)
}
