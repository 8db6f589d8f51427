// Package pos serves selling prices to point-of-sale clients.
package pos

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

const dateLayout = "2006-01-02"

// Resolver resolves batches of price requests.
type Resolver interface {
	ResolveBatch(ctx context.Context, reqs []pricing.Request) ([]pricing.Result, error)
}

// ItemLister lists the items that carry selling prices.
type ItemLister interface {
	SellingItemCodes(ctx context.Context) ([]string, error)
}

// Service builds POS price maps on top of the resolver.
type Service struct {
	resolver Resolver
	items    ItemLister
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// Options configures Service.
type Options struct {
	Cache  *Cache
	Logger *slog.Logger
	Now    func() time.Time
}

// NewService constructs Service.
func NewService(resolver Resolver, items ItemLister, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		resolver: resolver,
		items:    items,
		cache:    opts.Cache,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

func (s *Service) today() (time.Time, string) {
	d := pricing.CalendarDate(s.now())
	return d, d.Format(dateLayout)
}

// PriceMap returns the selling price of each item for customer. Items
// without a positive price are omitted.
func (s *Service) PriceMap(ctx context.Context, itemCodes []string, customer string) (map[string]decimal.Decimal, error) {
	customer = strings.TrimSpace(customer)
	date, dateKey := s.today()
	prices := make(map[string]decimal.Decimal, len(itemCodes))

	var misses []pricing.Request
	seen := make(map[string]struct{}, len(itemCodes))
	for _, code := range itemCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		entry, ok, err := s.cache.Get(ctx, code, customer, dateKey)
		if err != nil {
			s.logger.WarnContext(ctx, "pos price cache read", slog.String("item_code", code), slog.Any("error", err))
		}
		if ok {
			if rate, err := decimal.NewFromString(entry.Rate); err == nil {
				if rate.IsPositive() {
					prices[code] = rate
				}
				continue
			}
		}
		misses = append(misses, pricing.Request{ItemCode: code, Direction: pricing.Selling, Party: customer, Date: date})
	}
	if len(misses) == 0 {
		return prices, nil
	}

	results, err := s.resolver.ResolveBatch(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("pos: price map: %w", err)
	}
	for i, res := range results {
		code := misses[i].ItemCode
		entry := Entry{Rate: res.Rate.String(), Source: string(res.Source), Date: dateKey}
		if err := s.cache.Set(ctx, code, customer, entry); err != nil {
			s.logger.WarnContext(ctx, "pos price cache write", slog.String("item_code", code), slog.Any("error", err))
		}
		if res.Rate.IsPositive() {
			prices[code] = res.Rate
		}
	}
	return prices, nil
}

// AllSellingPrices returns the general selling price of every item that
// has an enabled selling price record.
func (s *Service) AllSellingPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	_, dateKey := s.today()
	cached, ok, err := s.cache.GetAll(ctx, dateKey)
	if err != nil {
		s.logger.WarnContext(ctx, "pos all-prices cache read", slog.Any("error", err))
	}
	if ok {
		return decodePrices(cached), nil
	}
	return s.buildAll(ctx)
}

// RebuildAll recomputes and caches the all-items map regardless of its
// cached state. It returns the number of priced items.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	prices, err := s.buildAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(prices), nil
}

// buildAll collapses concurrent builds for the same date into one.
func (s *Service) buildAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	date, dateKey := s.today()
	v, err, _ := s.group.Do("all:"+dateKey, func() (any, error) {
		codes, err := s.items.SellingItemCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("pos: list selling items: %w", err)
		}
		reqs := make([]pricing.Request, len(codes))
		for i, code := range codes {
			reqs[i] = pricing.Request{ItemCode: code, Direction: pricing.Selling, Date: date}
		}
		results, err := s.resolver.ResolveBatch(ctx, reqs)
		if err != nil {
			return nil, fmt.Errorf("pos: all prices: %w", err)
		}
		encoded := make(map[string]string, len(results))
		for i, res := range results {
			if res.Rate.IsPositive() {
				encoded[codes[i]] = res.Rate.String()
			}
		}
		if err := s.cache.SetAll(ctx, dateKey, encoded); err != nil {
			s.logger.WarnContext(ctx, "pos all-prices cache write", slog.Any("error", err))
		}
		s.logger.InfoContext(ctx, "pos price map built", slog.String("date", dateKey), slog.Int("items", len(encoded)))
		return encoded, nil
	})
	if err != nil {
		return nil, err
	}
	return decodePrices(v.(map[string]string)), nil
}

// Invalidate drops cached prices of an item. An empty customer drops the
// entries of every customer.
func (s *Service) Invalidate(ctx context.Context, itemCode, customer string) error {
	return s.cache.Invalidate(ctx, itemCode, customer)
}

// InvalidateAll drops every cached POS price.
func (s *Service) InvalidateAll(ctx context.Context) (int, error) {
	return s.cache.InvalidateAll(ctx)
}

func decodePrices(raw map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(raw))
	for code, rate := range raw {
		d, err := decimal.NewFromString(rate)
		if err != nil || !d.IsPositive() {
			continue
		}
		out[code] = d
	}
	return out
}
