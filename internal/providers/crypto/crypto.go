// Package crypto adapts CoinGecko's coin-market payloads into PriceQuote and
// ChartPoint DTOs, following the Cache -> Breaker -> Fetcher composition
// every provider adapter in this gateway uses.
package crypto

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/breaker"
	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

const (
	quoteTTL = 60 * time.Second
	chartTTL = 5 * time.Minute

	baseURL = "https://api.coingecko.com/api/v3"
)

var coinIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidCoinID reports whether id is a well-formed CoinGecko coin identifier.
func ValidCoinID(id string) bool { return coinIDPattern.MatchString(id) }

// rangeToDays maps the client-facing range enum to CoinGecko's "days" param.
var rangeToDays = map[string]int{
	"1D":  1,
	"7D":  7,
	"30D": 30,
	"90D": 90,
	"1Y":  365,
}

// ValidRange reports whether rng is one of the accepted chart ranges.
func ValidRange(rng string) bool {
	_, ok := rangeToDays[rng]
	return ok
}

// Adapter is the Crypto Prices Adapter.
type Adapter struct {
	cache   *cache.Cache
	breaker *breaker.Breaker
	fetcher *fetch.Fetcher
	apiKey  string
}

// New constructs the adapter. apiKey may be empty; CoinGecko's public
// endpoints are usable unauthenticated at a lower rate, so IsConfigured is
// not a hard gate here the way it is for the stock/LLM providers.
func New(c *cache.Cache, f *fetch.Fetcher, apiKey string) *Adapter {
	return &Adapter{
		cache: c,
		fetcher: f,
		apiKey: apiKey,
		breaker: breaker.New(breaker.Config{
			Name:             "coingecko",
			FailureThreshold: 4,
			SuccessThreshold: 2,
			ResetTimeout:     60 * time.Second,
		}),
	}
}

// IsConfigured always reports true: CoinGecko's public market endpoints work
// without a key, the adapter just forgoes the higher authenticated rate.
func (a *Adapter) IsConfigured() bool { return true }

// Status reports breaker health for the /health aggregate endpoint.
func (a *Adapter) Status() map[string]interface{} {
	s := a.breaker.Stats()
	return map[string]interface{}{
		"configured": a.apiKey != "",
		"state":      s.State,
	}
}

// coinMarketRow is CoinGecko's /coins/markets row shape.
type coinMarketRow struct {
	ID                         string  `json:"id"`
	Symbol                     string  `json:"symbol"`
	Name                       string  `json:"name"`
	Image                      string  `json:"image"`
	CurrentPrice               float64 `json:"current_price"`
	PriceChange24h             float64 `json:"price_change_24h"`
	PriceChangePercentage24h   float64 `json:"price_change_percentage_24h"`
	MarketCap                  float64 `json:"market_cap"`
	TotalVolume                float64 `json:"total_volume"`
	High24h                    float64 `json:"high_24h"`
	Low24h                     float64 `json:"low_24h"`
	SparklineIn7d              struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

func normalizeQuote(r coinMarketRow) dto.PriceQuote {
	q := dto.PriceQuote{
		ID:               r.ID,
		Symbol:           r.Symbol,
		Name:             r.Name,
		Image:            r.Image,
		Price:            r.CurrentPrice,
		Change24h:        r.PriceChange24h,
		ChangePercent24h: r.PriceChangePercentage24h,
		MarketCap:        r.MarketCap,
		Volume24h:        r.TotalVolume,
		High24h:          r.High24h,
		Low24h:           r.Low24h,
	}
	if len(r.SparklineIn7d.Price) > 0 {
		q.Sparkline = sampleEvery4th(r.SparklineIn7d.Price)
	}
	return q
}

func sampleEvery4th(points []float64) []float64 {
	out := make([]float64, 0, len(points)/4+1)
	for i := 0; i < len(points); i += 4 {
		out = append(out, points[i])
	}
	return out
}

// TopCoins returns the top-market-cap coin quotes, cache-first.
func (a *Adapter) TopCoins(ctx context.Context) ([]dto.PriceQuote, error) {
	key := cache.CryptoQuotesKey()
	if v, ok := a.cache.Get(key, quoteTTL); ok {
		return v.([]dto.PriceQuote), nil
	}

	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=100&page=1&sparkline=true", baseURL)
	rows, err := breaker.Execute(a.breaker, func() ([]coinMarketRow, error) {
		return fetch.FetchJSON[[]coinMarketRow](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		if stale, ok := a.cache.Get(key, 5*time.Minute); ok {
			return stale.([]dto.PriceQuote), nil
		}
		return nil, err
	}

	quotes := make([]dto.PriceQuote, 0, len(rows))
	for _, r := range rows {
		quotes = append(quotes, normalizeQuote(r))
	}
	a.cache.Set(key, quotes)
	return quotes, nil
}

// chartRow is CoinGecko's /coins/:id/market_chart shape.
type chartRow struct {
	Prices [][2]float64 `json:"prices"`
}

// Chart returns a downsampled price series for coinID over rng.
func (a *Adapter) Chart(ctx context.Context, coinID, rng string) ([]dto.ChartPoint, error) {
	days, ok := rangeToDays[rng]
	if !ok {
		return nil, fmt.Errorf("invalid range: %s", rng)
	}

	key := cache.CryptoChartKey(coinID, rng)
	if v, ok := a.cache.Get(key, chartTTL); ok {
		return v.([]dto.ChartPoint), nil
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", baseURL, coinID, days)
	row, err := breaker.Execute(a.breaker, func() (chartRow, error) {
		return fetch.FetchJSON[chartRow](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return nil, err
	}

	points := downsample(row.Prices)
	a.cache.Set(key, points)
	return points, nil
}

// downsample keeps at most 100 points by retaining every ceil(N/100)-th
// entry, and normalizes CoinGecko's millisecond timestamps to seconds.
func downsample(raw [][2]float64) []dto.ChartPoint {
	n := len(raw)
	if n == 0 {
		return nil
	}
	stride := 1
	if n > 100 {
		stride = (n + 99) / 100
	}

	out := make([]dto.ChartPoint, 0, 100)
	for i := 0; i < n; i += stride {
		out = append(out, dto.ChartPoint{
			Timestamp: int64(raw[i][0]) / 1000,
			Price:     raw[i][1],
		})
	}
	// Keep the final point so the series' right edge is exact, without
	// exceeding the 100-point cap: overwrite the last strided sample instead
	// of appending once the loop has already produced 100 entries.
	last := raw[n-1]
	final := dto.ChartPoint{Timestamp: int64(last[0]) / 1000, Price: last[1]}
	if out[len(out)-1].Timestamp == final.Timestamp {
		return out
	}
	if len(out) < 100 {
		out = append(out, final)
	} else {
		out[len(out)-1] = final
	}
	return out
}
