package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

func unconfiguredWrapper() *Wrapper {
	return New(cache.New(), fetch.New(nil, false), "", 10, time.Minute)
}

func TestIsConfiguredReflectsAPIKey(t *testing.T) {
	assert.False(t, unconfiguredWrapper().IsConfigured())

	w := New(cache.New(), fetch.New(nil, false), "key", 10, time.Minute)
	assert.True(t, w.IsConfigured())
}

func TestParseSearchQueryFallsBackToKeywordsWhenUnconfigured(t *testing.T) {
	w := unconfiguredWrapper()
	filters := w.ParseSearchQuery(context.Background(), "show me rising technology stocks AAPL")

	assert.Equal(t, "up", filters.ChangeDirection)
	require.NotNil(t, filters.Sector)
	assert.Equal(t, "technology", *filters.Sector)
	assert.Contains(t, filters.Symbols, "AAPL")
}

func TestKeywordFallbackParseDetectsCryptoType(t *testing.T) {
	filters := keywordFallbackParse("best crypto coin to buy")
	assert.Equal(t, "crypto", filters.Type)
}

func TestKeywordFallbackParseExcludesCommonWords(t *testing.T) {
	filters := keywordFallbackParse("TO THE MOON AAPL")
	assert.NotContains(t, filters.Symbols, "TO")
	assert.Contains(t, filters.Symbols, "AAPL")
}

func TestNormalizeSearchFiltersRejectsInvalidEnums(t *testing.T) {
	bogusSector := "not-a-real-sector"
	f := dto.SearchFilters{
		Type:            "bogus",
		ChangeDirection: "sideways",
		Action:          "destroy",
		Sector:          &bogusSector,
		Symbols:         []string{"aapl"},
	}
	out := NormalizeSearchFilters(f)

	assert.Equal(t, "both", out.Type)
	assert.Equal(t, "any", out.ChangeDirection)
	assert.Equal(t, "search", out.Action)
	assert.Nil(t, out.Sector)
	assert.Equal(t, []string{"AAPL"}, out.Symbols)
}

func TestNormalizeSearchFiltersKeepsValidSector(t *testing.T) {
	sector := "technology"
	f := dto.SearchFilters{Type: "stock", ChangeDirection: "up", Action: "search", Sector: &sector}
	out := NormalizeSearchFilters(f)
	require.NotNil(t, out.Sector)
	assert.Equal(t, "technology", *out.Sector)
}

func TestCapKeyPointsLimitsToThree(t *testing.T) {
	kp := dto.KeyPoints{Positive: []string{"a", "b", "c", "d"}}
	out := capKeyPoints(kp)
	assert.Len(t, out.Positive, 3)
}

func TestSummarizeStockUnconfiguredReturnsFalse(t *testing.T) {
	w := unconfiguredWrapper()
	_, ok := w.SummarizeStock(context.Background(), StockSummaryInput{Symbol: "AAPL"})
	assert.False(t, ok)
}
