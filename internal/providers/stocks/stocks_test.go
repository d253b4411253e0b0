package stocks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTimeframe(t *testing.T) {
	for _, tf := range []string{"1D", "7D", "30D", "1Y"} {
		assert.True(t, ValidTimeframe(tf), tf)
	}
	assert.False(t, ValidTimeframe("5D"))
}

func TestIsValidPE(t *testing.T) {
	assert.True(t, isValidPE(15.2))
	assert.False(t, isValidPE(0))
	assert.False(t, isValidPE(math.NaN()))
	assert.False(t, isValidPE(1e9))
	assert.False(t, isValidPE(-1e9))
}

func TestNormalizeFMPUppercasesSymbolAndPopulatesOptionalFields(t *testing.T) {
	q := fmpQuote{Symbol: "aapl", Name: "Apple", Price: 150, MarketCap: 2e12, PE: 28.5}
	asset := normalizeFMP("aapl", q)

	assert.Equal(t, "AAPL", asset.Symbol)
	assert.Equal(t, "USD", asset.Currency)
	require := assert.New(t)
	require.NotNil(asset.MarketCap)
	require.Equal(2e12, *asset.MarketCap)
	require.NotNil(asset.PE)
	require.Equal(28.5, *asset.PE)
}

func TestNormalizeFMPOmitsInvalidPE(t *testing.T) {
	asset := normalizeFMP("AAPL", fmpQuote{PE: 0})
	assert.Nil(t, asset.PE)
}

func TestNormalizeFinnhubMapsAbbreviatedFields(t *testing.T) {
	asset := normalizeFinnhub("msft", finnhubQuote{C: 300, D: 1.5, DP: 0.5, PC: 298.5})
	assert.Equal(t, "MSFT", asset.Symbol)
	assert.Equal(t, 300.0, asset.Price)
	assert.Equal(t, 298.5, asset.PreviousClose)
}

func TestWindowForMatchesResolution(t *testing.T) {
	assert.Equal(t, int64(78*5*60), windowFor(timeframeSpec{points: 78, resolution: "5"}))
	assert.Equal(t, int64(50*60*60), windowFor(timeframeSpec{points: 50, resolution: "60"}))
	assert.Equal(t, int64(30*24*60*60), windowFor(timeframeSpec{points: 30, resolution: "D"}))
}

func TestIsConfiguredReflectsEitherProvider(t *testing.T) {
	c := New(nil, nil, "", "")
	assert.False(t, c.IsConfigured())

	p := New(nil, nil, "primary-key", "")
	assert.True(t, p.IsConfigured())
	assert.True(t, p.PrimaryConfigured())
	assert.False(t, p.FallbackConfigured())
}
