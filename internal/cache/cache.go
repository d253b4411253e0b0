// Package cache implements the process-wide TTL cache described in spec §4.1.
// Freshness is a read-time decision: the writer stores a value with an
// insertion timestamp only, and every reader supplies its own maxAge. The
// same entry can be fresh for a 5-minute caller and stale for a 1-minute one.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

// entry pairs a value with the instant it was inserted. Entries are replaced
// wholesale on Set, never mutated in place, so a concurrent Get always
// observes either the pre-write or the post-write pair, never a torn one.
type entry struct {
	value      interface{}
	insertedAt time.Time
}

// Cache is a keyed, in-memory store with read-time staleness checks. Safe
// for concurrent use. Storage is unbounded by design: Get never evicts a
// stale entry, so only Delete, Invalidate or process exit free space.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	clk   clock.Clock
}

// New returns an empty cache using the real wall clock.
func New() *Cache {
	return NewWithClock(clock.New())
}

// NewWithClock returns an empty cache using the given clock, for tests that
// need to control the passage of time deterministically.
func NewWithClock(c clock.Clock) *Cache {
	return &Cache{items: make(map[string]entry), clk: c}
}

// Get returns the stored value iff it exists and now-insertedAt < maxAge.
// It never mutates the cache and never returns a partially constructed
// value: a miss or staleness is reported as ok=false.
func (c *Cache) Get(key string, maxAge time.Duration) (value interface{}, ok bool) {
	c.mu.RLock()
	e, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}
	if c.clk.Now().Sub(e.insertedAt) >= maxAge {
		return nil, false
	}
	return e.value, true
}

// Set unconditionally installs (value, now), replacing whatever was there.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, insertedAt: c.clk.Now()}
}

// Has reports freshness without returning the value.
func (c *Cache) Has(key string, maxAge time.Duration) bool {
	_, ok := c.Get(key, maxAge)
	return ok
}

// Delete removes a single key, reporting whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, found := c.items[key]
	delete(c.items, key)
	return found
}

// Invalidate removes every key containing the given substring. Used when an
// upstream reports a hard inconsistency and a whole scope of keys (e.g. every
// chart for a symbol) needs to be dropped at once.
func (c *Cache) Invalidate(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.items {
		if strings.Contains(k, substr) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Stats reports the current size and key set, for health endpoints.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return Stats{Size: len(c.items), Keys: keys}
}

// Key constructors. Stable per spec §4.1's naming convention
// "<domain>:<primary>:<sub>" — keys double as invalidation scopes, so
// construction is centralized here rather than built ad hoc at call sites.

func CryptoQuotesKey() string { return "crypto:prices:top" }

func CryptoBatchKey(ids string) string { return "crypto:prices:batch:" + ids }

func CryptoChartKey(coinID, rng string) string { return "crypto:chart:" + coinID + ":" + rng }

func NetworkStatsKey(chain string) string { return "chain:" + chain + ":network" }

func BlocksKey(chain string, limit, page int) string {
	return "chain:" + chain + ":blocks:" + strconv.Itoa(limit) + ":" + strconv.Itoa(page)
}

func BlockKey(chain, number string) string { return "chain:" + chain + ":block:" + number }

func BlockTxsKey(chain, number string) string { return "chain:" + chain + ":block:" + number + ":txs" }

func TxKey(hash string) string { return "explorer:tx:" + hash }

func AddressKey(addr string) string { return "explorer:address:" + addr }

func AddressTxsKey(addr string) string { return "explorer:address:" + addr + ":txs" }

func StockQuoteKey(symbol string) string { return "stock:quote:" + symbol }

func StockBatchKey(symbols string) string { return "stock:batch:" + symbols }

func StockChartKey(symbol, timeframe string) string { return "stock:chart:" + symbol + ":" + timeframe }

func StockProfileKey(symbol string) string { return "stock:profile:" + symbol }

func StockSearchKey(query string) string { return "stock:search:" + query }

func FundamentalsKey(kind, symbol string) string { return "fmp:" + kind + ":" + symbol }

func MarketWideKey(kind string) string { return "fmp:market:" + kind }

func AISearchKey(query string) string { return "ai:search:" + query }

func AISummaryKey(symbol string) string { return "ai:summary:" + symbol }

func AIMarketKey() string { return "ai:market:overview" }

