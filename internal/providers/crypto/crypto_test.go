package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCoinID(t *testing.T) {
	assert.True(t, ValidCoinID("bitcoin"))
	assert.True(t, ValidCoinID("usd-coin"))
	assert.False(t, ValidCoinID("Bitcoin"))
	assert.False(t, ValidCoinID("bitcoin!"))
	assert.False(t, ValidCoinID(""))
}

func TestValidRange(t *testing.T) {
	for _, r := range []string{"1D", "7D", "30D", "90D", "1Y"} {
		assert.True(t, ValidRange(r), r)
	}
	assert.False(t, ValidRange("5D"))
	assert.False(t, ValidRange(""))
}

func TestSampleEvery4th(t *testing.T) {
	points := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	out := sampleEvery4th(points)
	assert.Equal(t, []float64{0, 4, 8}, out)
}

func TestNormalizeQuoteMapsFields(t *testing.T) {
	row := coinMarketRow{
		ID: "bitcoin", Symbol: "btc", Name: "Bitcoin",
		CurrentPrice: 50000, PriceChange24h: 100, PriceChangePercentage24h: 0.2,
		MarketCap: 1e12, TotalVolume: 2e10, High24h: 51000, Low24h: 49000,
	}
	row.SparklineIn7d.Price = []float64{1, 2, 3, 4, 5}

	q := normalizeQuote(row)
	assert.Equal(t, "bitcoin", q.ID)
	assert.Equal(t, "btc", q.Symbol)
	assert.Equal(t, 50000.0, q.Price)
	assert.Equal(t, []float64{1, 5}, q.Sparkline)
}

func TestNormalizeQuoteOmitsSparklineWhenAbsent(t *testing.T) {
	q := normalizeQuote(coinMarketRow{ID: "bitcoin"})
	assert.Nil(t, q.Sparkline)
}

func TestDownsampleKeepsAtMost100PointsAndExactRightEdge(t *testing.T) {
	raw := make([][2]float64, 250)
	for i := range raw {
		raw[i] = [2]float64{float64(i * 1000), float64(i)}
	}

	out := downsample(raw)
	assert.LessOrEqual(t, len(out), 100)
	assert.Equal(t, int64(249), out[len(out)-1].Timestamp)
	assert.Equal(t, 249.0, out[len(out)-1].Price)
	assert.Equal(t, int64(0), out[0].Timestamp)
}

func TestDownsampleNeverExceeds100PointsWhenStrideHitsExactly100(t *testing.T) {
	// n=400 with stride=4 produces exactly 100 strided samples whose last
	// index (396) isn't the final raw index (399) — the final-point merge
	// must overwrite, not append, or the series would grow to 101.
	raw := make([][2]float64, 400)
	for i := range raw {
		raw[i] = [2]float64{float64(i * 1000), float64(i)}
	}

	out := downsample(raw)
	assert.Len(t, out, 100)
	assert.Equal(t, int64(399), out[len(out)-1].Timestamp)
	assert.Equal(t, 399.0, out[len(out)-1].Price)
}

func TestDownsampleSmallSeriesKeepsEveryPoint(t *testing.T) {
	raw := [][2]float64{{1000, 1}, {2000, 2}, {3000, 3}}
	out := downsample(raw)
	assert.Len(t, out, 3)
}

func TestDownsampleEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, downsample(nil))
}
