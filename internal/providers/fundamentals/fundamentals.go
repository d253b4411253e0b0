// Package fundamentals wraps FMP's company-fundamentals and market-wide
// endpoints: profile, news, analyst data, calendars, financial statements,
// and sector performance. Every operation is check-configured -> cache ->
// fetch -> cache -> return-or-null, per spec §4.6.
package fundamentals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/breaker"
	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

const baseURL = "https://financialmodelingprep.com/api/v3"

// Cache TTLs tiered by how often each kind of data actually changes.
const (
	moversTTL    = 5 * time.Minute
	newsTTL      = 10 * time.Minute
	sectorsTTL   = 10 * time.Minute
	profileTTL   = 15 * time.Minute
	calendarTTL  = 15 * time.Minute
	analystTTL   = 30 * time.Minute
	financialTTL = time.Hour
)

// Adapter wraps one FMP breaker behind many thin endpoint wrappers.
type Adapter struct {
	cache   *cache.Cache
	fetcher *fetch.Fetcher
	breaker *breaker.Breaker
	apiKey  string
}

func New(c *cache.Cache, f *fetch.Fetcher, apiKey string) *Adapter {
	return &Adapter{
		cache:   c,
		fetcher: f,
		apiKey:  apiKey,
		breaker: breaker.New(breaker.Config{
			Name: "fundamentals", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 90 * time.Second,
		}),
	}
}

func (a *Adapter) IsConfigured() bool { return a.apiKey != "" }

func (a *Adapter) Status() map[string]interface{} {
	return map[string]interface{}{
		"configured": a.IsConfigured(),
		"state":      a.breaker.Stats().State,
	}
}

// fetchCached is the shared skeleton every wrapper below follows: check
// configured -> cache -> breaker+fetch -> cache -> return-or-null.
func fetchCached[T any](ctx context.Context, a *Adapter, key string, ttl time.Duration, url string) (T, bool) {
	var zero T
	if !a.IsConfigured() {
		return zero, false
	}
	if v, ok := a.cache.Get(key, ttl); ok {
		return v.(T), true
	}
	v, err := breaker.Execute(a.breaker, func() (T, error) {
		return fetch.FetchJSON[T](ctx, a.fetcher, url, 10*time.Second)
	})
	if err != nil {
		return zero, false
	}
	a.cache.Set(key, v)
	return v, true
}

type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	Description string  `json:"description"`
	Website     string  `json:"website"`
	MarketCap   float64 `json:"mktCap"`
}

func (a *Adapter) Profile(ctx context.Context, symbol string) ([]Profile, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/profile/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]Profile](ctx, a, cache.FundamentalsKey("profile", symbol), profileTTL, url)
}

type NewsItem struct {
	Symbol    string `json:"symbol"`
	Title     string `json:"title"`
	PublishedDate string `json:"publishedDate"`
	Site      string `json:"site"`
	URL       string `json:"url"`
}

func (a *Adapter) News(ctx context.Context, symbol string) ([]NewsItem, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/stock_news?tickers=%s&limit=20&apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]NewsItem](ctx, a, cache.FundamentalsKey("news", symbol), newsTTL, url)
}

func (a *Adapter) GeneralNews(ctx context.Context) ([]NewsItem, bool) {
	url := fmt.Sprintf("%s/stock_news?limit=50&apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]NewsItem](ctx, a, cache.MarketWideKey("news"), newsTTL, url)
}

type Estimate struct {
	Symbol               string  `json:"symbol"`
	Date                 string  `json:"date"`
	EstimatedEpsAvg      float64 `json:"estimatedEpsAvg"`
	EstimatedRevenueAvg  float64 `json:"estimatedRevenueAvg"`
}

func (a *Adapter) Estimates(ctx context.Context, symbol string) ([]Estimate, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/analyst-estimates/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]Estimate](ctx, a, cache.FundamentalsKey("estimates", symbol), analystTTL, url)
}

type PriceTarget struct {
	Symbol            string  `json:"symbol"`
	TargetConsensus   float64 `json:"targetConsensus"`
	TargetHigh        float64 `json:"targetHigh"`
	TargetLow         float64 `json:"targetLow"`
}

func (a *Adapter) PriceTargetConsensus(ctx context.Context, symbol string) (PriceTarget, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/price-target-consensus?symbol=%s&apikey=%s", baseURL, symbol, a.apiKey)
	rows, ok := fetchCached[[]PriceTarget](ctx, a, cache.FundamentalsKey("price-target-consensus", symbol), analystTTL, url)
	if !ok || len(rows) == 0 {
		return PriceTarget{}, false
	}
	return rows[0], true
}

func (a *Adapter) PriceTargets(ctx context.Context, symbol string) ([]PriceTarget, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/price-target?symbol=%s&apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]PriceTarget](ctx, a, cache.FundamentalsKey("price-targets", symbol), analystTTL, url)
}

type Grade struct {
	Symbol       string `json:"symbol"`
	Date         string `json:"date"`
	GradingCompany string `json:"gradingCompany"`
	NewGrade     string `json:"newGrade"`
	PreviousGrade string `json:"previousGrade"`
	Action       string `json:"action"`
}

func (a *Adapter) Grades(ctx context.Context, symbol string) ([]Grade, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/grade/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]Grade](ctx, a, cache.FundamentalsKey("grades", symbol), analystTTL, url)
}

type GradeConsensus struct {
	Symbol            string `json:"symbol"`
	StrongBuy         int    `json:"strongBuy"`
	Buy               int    `json:"buy"`
	Hold              int    `json:"hold"`
	Sell              int    `json:"sell"`
	StrongSell        int    `json:"strongSell"`
	Consensus         string `json:"consensus"`
}

func (a *Adapter) GradeConsensus(ctx context.Context, symbol string) (GradeConsensus, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/grade-consensus?symbol=%s&apikey=%s", baseURL, symbol, a.apiKey)
	rows, ok := fetchCached[[]GradeConsensus](ctx, a, cache.FundamentalsKey("consensus", symbol), analystTTL, url)
	if !ok || len(rows) == 0 {
		return GradeConsensus{}, false
	}
	return rows[0], true
}

type CalendarEvent struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	EPS    float64 `json:"eps,omitempty"`
	Dividend float64 `json:"dividend,omitempty"`
}

func (a *Adapter) EarningsCalendar(ctx context.Context) ([]CalendarEvent, bool) {
	url := fmt.Sprintf("%s/earning_calendar?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]CalendarEvent](ctx, a, cache.MarketWideKey("calendar:earnings"), calendarTTL, url)
}

func (a *Adapter) DividendsCalendar(ctx context.Context) ([]CalendarEvent, bool) {
	url := fmt.Sprintf("%s/stock_dividend_calendar?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]CalendarEvent](ctx, a, cache.MarketWideKey("calendar:dividends"), calendarTTL, url)
}

func (a *Adapter) IPOCalendar(ctx context.Context) ([]CalendarEvent, bool) {
	url := fmt.Sprintf("%s/ipo_calendar?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]CalendarEvent](ctx, a, cache.MarketWideKey("calendar:ipos"), calendarTTL, url)
}

func (a *Adapter) SplitsCalendar(ctx context.Context) ([]CalendarEvent, bool) {
	url := fmt.Sprintf("%s/stock_split_calendar?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]CalendarEvent](ctx, a, cache.MarketWideKey("calendar:splits"), calendarTTL, url)
}

type SectorPerformance struct {
	Sector           string  `json:"sector"`
	ChangesPercentage string `json:"changesPercentage"`
}

func (a *Adapter) SectorPerformance(ctx context.Context) ([]SectorPerformance, bool) {
	url := fmt.Sprintf("%s/sector-performance?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]SectorPerformance](ctx, a, cache.MarketWideKey("sectors"), sectorsTTL, url)
}

type FinancialStatement map[string]interface{}

func (a *Adapter) IncomeStatement(ctx context.Context, symbol string) ([]FinancialStatement, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/income-statement/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]FinancialStatement](ctx, a, cache.FundamentalsKey("income", symbol), financialTTL, url)
}

func (a *Adapter) BalanceSheet(ctx context.Context, symbol string) ([]FinancialStatement, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/balance-sheet-statement/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]FinancialStatement](ctx, a, cache.FundamentalsKey("balance-sheet", symbol), financialTTL, url)
}

func (a *Adapter) CashFlow(ctx context.Context, symbol string) ([]FinancialStatement, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/cash-flow-statement/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]FinancialStatement](ctx, a, cache.FundamentalsKey("cash-flow", symbol), financialTTL, url)
}

type KeyMetrics map[string]interface{}

func (a *Adapter) Metrics(ctx context.Context, symbol string) ([]KeyMetrics, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/key-metrics/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]KeyMetrics](ctx, a, cache.FundamentalsKey("metrics", symbol), analystTTL, url)
}

type InstitutionalHolder struct {
	Holder  string  `json:"holder"`
	Shares  float64 `json:"shares"`
	Change  float64 `json:"change"`
}

func (a *Adapter) InstitutionalHolders(ctx context.Context, symbol string) ([]InstitutionalHolder, bool) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/institutional-holder/%s?apikey=%s", baseURL, symbol, a.apiKey)
	return fetchCached[[]InstitutionalHolder](ctx, a, cache.FundamentalsKey("institutions", symbol), analystTTL, url)
}

type MoverRow struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

func (a *Adapter) Gainers(ctx context.Context) ([]MoverRow, bool) {
	url := fmt.Sprintf("%s/stock_market/gainers?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]MoverRow](ctx, a, cache.MarketWideKey("gainers"), moversTTL, url)
}

func (a *Adapter) Losers(ctx context.Context) ([]MoverRow, bool) {
	url := fmt.Sprintf("%s/stock_market/losers?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]MoverRow](ctx, a, cache.MarketWideKey("losers"), moversTTL, url)
}

func (a *Adapter) Actives(ctx context.Context) ([]MoverRow, bool) {
	url := fmt.Sprintf("%s/stock_market/actives?apikey=%s", baseURL, a.apiKey)
	return fetchCached[[]MoverRow](ctx, a, cache.MarketWideKey("actives"), moversTTL, url)
}
