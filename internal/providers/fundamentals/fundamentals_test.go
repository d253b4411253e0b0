package fundamentals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

func TestIsConfiguredReflectsAPIKey(t *testing.T) {
	a := New(cache.New(), fetch.New(nil, false), "")
	assert.False(t, a.IsConfigured())

	b := New(cache.New(), fetch.New(nil, false), "key")
	assert.True(t, b.IsConfigured())
}

func TestProfileUnconfiguredReturnsFalseWithoutCallingUpstream(t *testing.T) {
	a := New(cache.New(), fetch.New(nil, false), "")
	profiles, ok := a.Profile(context.Background(), "AAPL")
	assert.False(t, ok)
	assert.Nil(t, profiles)
}

func TestFetchCachedServesFromCacheWithoutRecontacting(t *testing.T) {
	c := cache.New()
	f := fetch.New([]string{"unreachable.invalid"}, false)
	a := New(c, f, "key")

	c.Set(cache.FundamentalsKey("profile", "AAPL"), []Profile{{Symbol: "AAPL"}})

	profiles, ok := a.Profile(context.Background(), "AAPL")
	assert.True(t, ok)
	assert.Equal(t, "AAPL", profiles[0].Symbol)
}

func TestFetchCachedReturnsFalseOnUpstreamFailure(t *testing.T) {
	a := New(cache.New(), fetch.New([]string{"unreachable.invalid"}, false), "key")
	profiles, ok := a.Profile(context.Background(), "AAPL")
	assert.False(t, ok)
	assert.Nil(t, profiles)
}
