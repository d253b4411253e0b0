// Package stocks implements the dual-provider Stock Adapter: FMP as primary
// (full quote + profile fields), Finnhub as fallback (quote only, plus
// profile augmentation merged onto a successful primary read).
package stocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/breaker"
	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

const (
	quoteTTL        = 60 * time.Second
	chartTTL        = 5 * time.Minute
	profileTTL      = 24 * time.Hour
	staleExtension  = 5 * time.Minute

	primaryBaseURL  = "https://financialmodelingprep.com/api/v3"
	fallbackBaseURL = "https://finnhub.io/api/v1"
)

// timeframeSpec describes one client-facing timeframe's upstream mapping.
type timeframeSpec struct {
	points     int
	resolution string // Finnhub resolution code
}

var timeframes = map[string]timeframeSpec{
	"1D":  {points: 78, resolution: "5"},
	"7D":  {points: 50, resolution: "60"},
	"30D": {points: 30, resolution: "D"},
	"1Y":  {points: 252, resolution: "D"},
}

func ValidTimeframe(tf string) bool {
	_, ok := timeframes[tf]
	return ok
}

// Adapter composes the primary/fallback providers behind one cache.
type Adapter struct {
	cache *cache.Cache

	fetcher *fetch.Fetcher

	primaryBreaker  *breaker.Breaker
	fallbackBreaker *breaker.Breaker

	primaryKey  string
	fallbackKey string
}

func New(c *cache.Cache, f *fetch.Fetcher, primaryKey, fallbackKey string) *Adapter {
	return &Adapter{
		cache:       c,
		fetcher:     f,
		primaryKey:  primaryKey,
		fallbackKey: fallbackKey,
		primaryBreaker: breaker.New(breaker.Config{
			Name: "stocks:primary", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 60 * time.Second,
		}),
		fallbackBreaker: breaker.New(breaker.Config{
			Name: "stocks:fallback", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 60 * time.Second,
		}),
	}
}

func (a *Adapter) PrimaryConfigured() bool  { return a.primaryKey != "" }
func (a *Adapter) FallbackConfigured() bool { return a.fallbackKey != "" }
func (a *Adapter) IsConfigured() bool       { return a.PrimaryConfigured() || a.FallbackConfigured() }

func (a *Adapter) Status() map[string]interface{} {
	return map[string]interface{}{
		"configured":    a.IsConfigured(),
		"anyConfigured": a.IsConfigured(),
		"circuitState":  a.primaryBreaker.Stats().State,
	}
}

type fmpQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Volume        float64 `json:"volume"`
	DayHigh       float64 `json:"dayHigh"`
	DayLow        float64 `json:"dayLow"`
	Exchange      string  `json:"exchange"`
	MarketCap     float64 `json:"marketCap"`
	PE            float64 `json:"pe"`
	PreviousClose float64 `json:"previousClose"`
	Open          float64 `json:"open"`
}

type finnhubQuote struct {
	C  float64 `json:"c"` // current price
	D  float64 `json:"d"` // change
	DP float64 `json:"dp"` // change percent
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	O  float64 `json:"o"`
	PC float64 `json:"pc"` // previous close
}

type finnhubProfile struct {
	MarketCapitalization float64 `json:"marketCapitalization"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	Exchange             string  `json:"exchange"`
	Currency             string  `json:"currency"`
}

func normalizeFMP(symbol string, q fmpQuote) dto.StockAsset {
	asset := dto.StockAsset{
		ID:               strings.ToUpper(symbol),
		Type:             "stock",
		Symbol:           strings.ToUpper(symbol),
		Name:             q.Name,
		Price:            q.Price,
		Change24h:        q.Change,
		ChangePercent24h: q.ChangesPercentage,
		Volume24h:        q.Volume,
		High24h:          q.DayHigh,
		Low24h:           q.DayLow,
		Exchange:         q.Exchange,
		Currency:         "USD",
		PreviousClose:    q.PreviousClose,
		Open:             q.Open,
		LastUpdated:      time.Now().UnixMilli(),
	}
	if q.MarketCap != 0 {
		mc := q.MarketCap
		asset.MarketCap = &mc
	}
	if isValidPE(q.PE) {
		pe := q.PE
		asset.PE = &pe
	}
	return asset
}

// isValidPE implements spec §4.6's P/E validation: finite, non-zero, and
// bounded away from the blown-up values ratio calculations sometimes yield.
func isValidPE(pe float64) bool {
	return pe == pe && pe != 0 && pe > -10000 && pe < 10000 // pe==pe excludes NaN
}

func normalizeFinnhub(symbol string, q finnhubQuote) dto.StockAsset {
	return dto.StockAsset{
		ID:               strings.ToUpper(symbol),
		Type:             "stock",
		Symbol:           strings.ToUpper(symbol),
		Name:             symbol,
		Price:            q.C,
		Change24h:        q.D,
		ChangePercent24h: q.DP,
		High24h:          q.H,
		Low24h:           q.L,
		Currency:         "USD",
		PreviousClose:    q.PC,
		Open:             q.O,
		LastUpdated:      time.Now().UnixMilli(),
	}
}

// Quote implements the dual-provider policy from spec §4.6: cache -> primary
// (+profile merge from fallback) -> full fallback -> stale cache -> null.
func (a *Adapter) Quote(ctx context.Context, symbol string) (dto.StockAsset, bool, error) {
	symbol = strings.ToUpper(symbol)
	key := cache.StockQuoteKey(symbol)
	if v, ok := a.cache.Get(key, quoteTTL); ok {
		return v.(dto.StockAsset), true, nil
	}

	if a.PrimaryConfigured() {
		asset, err := a.fetchPrimary(ctx, symbol)
		if err == nil {
			if a.FallbackConfigured() {
				a.mergeProfile(ctx, symbol, &asset)
			}
			a.cache.Set(key, asset)
			return asset, true, nil
		}
	}

	if a.FallbackConfigured() {
		asset, err := a.fetchFallback(ctx, symbol)
		if err == nil {
			a.cache.Set(key, asset)
			return asset, true, nil
		}
	}

	if v, ok := a.cache.Get(key, quoteTTL+staleExtension); ok {
		return v.(dto.StockAsset), true, nil
	}

	return dto.StockAsset{}, false, nil
}

func (a *Adapter) fetchPrimary(ctx context.Context, symbol string) (dto.StockAsset, error) {
	url := fmt.Sprintf("%s/quote/%s?apikey=%s", primaryBaseURL, symbol, a.primaryKey)
	rows, err := breaker.Execute(a.primaryBreaker, func() ([]fmpQuote, error) {
		return fetch.FetchJSON[[]fmpQuote](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return dto.StockAsset{}, err
	}
	if len(rows) == 0 {
		return dto.StockAsset{}, fmt.Errorf("empty primary response for %s", symbol)
	}
	return normalizeFMP(symbol, rows[0]), nil
}

func (a *Adapter) fetchFallback(ctx context.Context, symbol string) (dto.StockAsset, error) {
	url := fmt.Sprintf("%s/quote?symbol=%s&token=%s", fallbackBaseURL, symbol, a.fallbackKey)
	q, err := breaker.Execute(a.fallbackBreaker, func() (finnhubQuote, error) {
		return fetch.FetchJSON[finnhubQuote](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return dto.StockAsset{}, err
	}
	if q.C == 0 {
		return dto.StockAsset{}, fmt.Errorf("empty fallback response for %s", symbol)
	}
	return normalizeFinnhub(symbol, q), nil
}

// mergeProfile augments a successful primary read with fallback-only profile
// fields (marketCap, sector), per spec §4.6 step (c). Failures here never
// fail the overall quote — profile enrichment is best-effort.
func (a *Adapter) mergeProfile(ctx context.Context, symbol string, asset *dto.StockAsset) {
	url := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s", fallbackBaseURL, symbol, a.fallbackKey)
	profile, ok := fetch.SafeFetch[finnhubProfile](ctx, a.fetcher, url, 5*time.Second)
	if !ok {
		return
	}
	if profile.MarketCapitalization > 0 {
		mc := profile.MarketCapitalization * 1_000_000 // Finnhub reports in millions
		asset.MarketCap = &mc
	}
	if profile.FinnhubIndustry != "" {
		sector := profile.FinnhubIndustry
		asset.Sector = &sector
	}
}

// Batch quotes multiple symbols, each independently subject to the same
// fallback policy as Quote.
func (a *Adapter) Batch(ctx context.Context, symbols []string) ([]dto.StockAsset, error) {
	out := make([]dto.StockAsset, 0, len(symbols))
	for _, sym := range symbols {
		asset, ok, err := a.Quote(ctx, sym)
		if err != nil || !ok {
			continue
		}
		out = append(out, asset)
	}
	return out, nil
}

type fmpChartRow struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Volume float64 `json:"volume"`
}

type finnhubCandles struct {
	C []float64 `json:"c"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	V []float64 `json:"v"`
	T []int64   `json:"t"`
	S string    `json:"s"`
}

// Chart returns an ascending-timestamp price series for symbol over timeframe.
func (a *Adapter) Chart(ctx context.Context, symbol, timeframe string) ([]dto.ChartPoint, bool, error) {
	symbol = strings.ToUpper(symbol)
	spec, ok := timeframes[timeframe]
	if !ok {
		return nil, false, fmt.Errorf("invalid timeframe: %s", timeframe)
	}

	key := cache.StockChartKey(symbol, timeframe)
	if v, ok := a.cache.Get(key, chartTTL); ok {
		return v.([]dto.ChartPoint), true, nil
	}

	if a.PrimaryConfigured() {
		points, err := a.fetchPrimaryChart(ctx, symbol, spec)
		if err == nil {
			a.cache.Set(key, points)
			return points, true, nil
		}
	}
	if a.FallbackConfigured() {
		points, err := a.fetchFallbackChart(ctx, symbol, spec)
		if err == nil {
			a.cache.Set(key, points)
			return points, true, nil
		}
	}
	return nil, false, nil
}

func (a *Adapter) fetchPrimaryChart(ctx context.Context, symbol string, spec timeframeSpec) ([]dto.ChartPoint, error) {
	url := fmt.Sprintf("%s/historical-chart/5min/%s?apikey=%s", primaryBaseURL, symbol, a.primaryKey)
	if spec.resolution == "D" {
		url = fmt.Sprintf("%s/historical-price-full/%s?apikey=%s", primaryBaseURL, symbol, a.primaryKey)
	}
	rows, err := breaker.Execute(a.primaryBreaker, func() ([]fmpChartRow, error) {
		return fetch.FetchJSON[[]fmpChartRow](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return nil, err
	}

	n := spec.points
	if n > len(rows) {
		n = len(rows)
	}
	points := make([]dto.ChartPoint, 0, n)
	// FMP returns newest-first; reverse into ascending order while truncating.
	for i := n - 1; i >= 0; i-- {
		r := rows[i]
		t, _ := time.Parse("2006-01-02 15:04:05", r.Date)
		if t.IsZero() {
			t, _ = time.Parse("2006-01-02", r.Date)
		}
		o, h, l, v := r.Open, r.High, r.Low, r.Volume
		points = append(points, dto.ChartPoint{
			Timestamp: t.Unix(),
			Price:     r.Close,
			Open:      &o, High: &h, Low: &l, Close: &r.Close, Volume: &v,
		})
	}
	return points, nil
}

func (a *Adapter) fetchFallbackChart(ctx context.Context, symbol string, spec timeframeSpec) ([]dto.ChartPoint, error) {
	to := time.Now().Unix()
	from := to - windowFor(spec)
	url := fmt.Sprintf("%s/stock/candle?symbol=%s&resolution=%s&from=%d&to=%d&token=%s",
		fallbackBaseURL, symbol, spec.resolution, from, to, a.fallbackKey)
	candles, err := breaker.Execute(a.fallbackBreaker, func() (finnhubCandles, error) {
		return fetch.FetchJSON[finnhubCandles](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return nil, err
	}
	if candles.S != "ok" {
		return nil, fmt.Errorf("no candle data for %s", symbol)
	}
	points := make([]dto.ChartPoint, 0, len(candles.T))
	for i, ts := range candles.T {
		o, h, l, c, v := candles.O[i], candles.H[i], candles.L[i], candles.C[i], candles.V[i]
		points = append(points, dto.ChartPoint{
			Timestamp: ts, Price: c, Open: &o, High: &h, Low: &l, Close: &c, Volume: &v,
		})
	}
	return points, nil
}

func windowFor(spec timeframeSpec) int64 {
	switch spec.resolution {
	case "5":
		return int64(spec.points) * 5 * 60
	case "60":
		return int64(spec.points) * 60 * 60
	default:
		return int64(spec.points) * 24 * 60 * 60
	}
}

type fmpSearchRow struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	StockExchange string `json:"stockExchange"`
}

// Search resolves a free-text query to a small list of matching symbols.
func (a *Adapter) Search(ctx context.Context, query string) ([]dto.SearchResult, error) {
	key := cache.StockSearchKey(query)
	if v, ok := a.cache.Get(key, quoteTTL); ok {
		return v.([]dto.SearchResult), nil
	}
	if !a.PrimaryConfigured() {
		return nil, nil
	}
	url := fmt.Sprintf("%s/search?query=%s&limit=10&apikey=%s", primaryBaseURL, query, a.primaryKey)
	rows, err := breaker.Execute(a.primaryBreaker, func() ([]fmpSearchRow, error) {
		return fetch.FetchJSON[[]fmpSearchRow](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.SearchResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.SearchResult{
			ID:       strings.ToUpper(r.Symbol),
			Symbol:   strings.ToUpper(r.Symbol),
			Name:     r.Name,
			Exchange: r.StockExchange,
		})
	}
	a.cache.Set(key, out)
	return out, nil
}
