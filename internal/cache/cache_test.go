package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

func TestGetMissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.Get("nope", time.Minute)
	assert.False(t, ok)
}

func TestGetRespectsCallerSuppliedMaxAge(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	c := NewWithClock(clk)
	c.Set("k", 42)

	clk.Advance(90 * time.Second)

	v, ok := c.Get("k", 2*time.Minute)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get("k", time.Minute)
	assert.False(t, ok, "same entry must be stale for a shorter maxAge")
}

func TestSetOverwritesInsertionTime(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	c := NewWithClock(clk)
	c.Set("k", "v1")
	clk.Advance(time.Hour)
	c.Set("k", "v2")

	v, ok := c.Get("k", time.Minute)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestDeleteReportsPresence(t *testing.T) {
	c := New()
	assert.False(t, c.Delete("missing"))
	c.Set("k", 1)
	assert.True(t, c.Delete("k"))
	_, ok := c.Get("k", time.Hour)
	assert.False(t, ok)
}

func TestInvalidateRemovesMatchingSubstring(t *testing.T) {
	c := New()
	c.Set("stock:chart:AAPL:1D", 1)
	c.Set("stock:chart:AAPL:7D", 2)
	c.Set("stock:quote:AAPL", 3)

	removed := c.Invalidate("chart:AAPL")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("stock:quote:AAPL", time.Hour)
	assert.True(t, ok, "non-matching key must survive invalidation")
}

func TestStatsReportsSizeAndKeys(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.ElementsMatch(t, []string{"a", "b"}, stats.Keys)
}

func TestKeyConstructorsAreStable(t *testing.T) {
	assert.Equal(t, "crypto:prices:top", CryptoQuotesKey())
	assert.Equal(t, "chain:ethereum:blocks:10:1", BlocksKey("ethereum", 10, 1))
	assert.Equal(t, "stock:chart:AAPL:1D", StockChartKey("AAPL", "1D"))
	assert.Equal(t, "ai:market:overview", AIMarketKey())
}
