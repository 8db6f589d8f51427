package pos

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "pos_item_prices"
	allKey      = keyPrefix + ":all"
	defaultPart = "default"
	scanBatch   = 200
)

// Entry is the cached price of one item for one customer.
type Entry struct {
	Rate   string `json:"rate"`
	Source string `json:"source"`
	Date   string `json:"date"`
}

type allEntry struct {
	Date   string            `json:"date"`
	Prices map[string]string `json:"prices"`
}

// Cache stores POS prices in Redis. A nil Cache or client caches nothing.
type Cache struct {
	client  *redis.Client
	itemTTL time.Duration
	allTTL  time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, itemTTL, allTTL time.Duration) *Cache {
	return &Cache{client: client, itemTTL: itemTTL, allTTL: allTTL}
}

// ItemKey returns the key of an item's price for customer, or the
// default key when customer is empty.
func ItemKey(itemCode, customer string) string {
	if customer == "" {
		customer = defaultPart
	}
	return strings.Join([]string{keyPrefix, itemCode, customer}, ":")
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the entry for item and customer when it was computed for date.
func (c *Cache) Get(ctx context.Context, itemCode, customer, date string) (Entry, bool, error) {
	if !c.enabled() {
		return Entry{}, false, nil
	}
	payload, err := c.client.Get(ctx, ItemKey(itemCode, customer)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, false, nil
	}
	if entry.Date != date {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores entry for item and customer.
func (c *Cache) Set(ctx context.Context, itemCode, customer string, entry Entry) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ItemKey(itemCode, customer), raw, c.itemTTL).Err()
}

// GetAll returns the cached all-items map when it was built for date.
func (c *Cache) GetAll(ctx context.Context, date string) (map[string]string, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, allKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry allEntry
	if err := json.Unmarshal(payload, &entry); err != nil || entry.Date != date {
		return nil, false, nil
	}
	return entry.Prices, true, nil
}

// SetAll stores the all-items map built for date.
func (c *Cache) SetAll(ctx context.Context, date string, prices map[string]string) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(allEntry{Date: date, Prices: prices})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, allKey, raw, c.allTTL).Err()
}

// Invalidate drops cached prices of an item together with the all-items map.
// A customer-specific change only touches that customer's entry. A change to
// a record without a customer can alter what every customer resolves to, so
// all entries of the item are dropped.
func (c *Cache) Invalidate(ctx context.Context, itemCode, customer string) error {
	if !c.enabled() {
		return nil
	}
	if customer != "" {
		return c.client.Del(ctx, ItemKey(itemCode, customer), ItemKey(itemCode, ""), allKey).Err()
	}
	if err := c.client.Del(ctx, allKey).Err(); err != nil {
		return err
	}
	_, err := c.deleteMatching(ctx, keyPrefix+":"+globEscaper.Replace(itemCode)+":*")
	return err
}

// InvalidateAll removes every POS price key and reports how many were deleted.
func (c *Cache) InvalidateAll(ctx context.Context) (int, error) {
	if !c.enabled() {
		return 0, nil
	}
	return c.deleteMatching(ctx, keyPrefix+":*")
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func (c *Cache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
