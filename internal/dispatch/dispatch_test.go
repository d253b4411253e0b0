package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/config"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/fundamentals"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/llm"
)

type fakeCrypto struct{}

func (fakeCrypto) TopCoins(ctx context.Context) ([]dto.PriceQuote, error) {
	return []dto.PriceQuote{{ID: "bitcoin", Symbol: "btc"}}, nil
}
func (fakeCrypto) Chart(ctx context.Context, coinID, rng string) ([]dto.ChartPoint, error) {
	return []dto.ChartPoint{{Timestamp: 1, Price: 2}}, nil
}

type fakeBlockchain struct{ configured bool }

func (f fakeBlockchain) NetworkStats(ctx context.Context) (dto.NetworkStats, error) {
	return dto.NetworkStats{Chain: "ethereum"}, nil
}
func (f fakeBlockchain) ListBlocks(ctx context.Context, limit, page int) ([]dto.Block, error) {
	return []dto.Block{{Number: 1}}, nil
}
func (f fakeBlockchain) GetBlock(ctx context.Context, number string) (dto.Block, error) {
	if number == "404" {
		return dto.Block{}, nil
	}
	return dto.Block{Number: 1}, nil
}
func (f fakeBlockchain) GetBlockTransactions(ctx context.Context, number string) ([]dto.Transaction, error) {
	return []dto.Transaction{}, nil
}
func (f fakeBlockchain) IsConfigured() bool                     { return f.configured }
func (f fakeBlockchain) Status() map[string]interface{}         { return map[string]interface{}{"configured": f.configured} }

type fakeExplorer struct{}

func (fakeExplorer) Transaction(ctx context.Context, hash string) (dto.Transaction, bool, error) {
	return dto.Transaction{Hash: hash}, true, nil
}
func (fakeExplorer) Address(ctx context.Context, addr string) (dto.AddressInfo, bool, error) {
	return dto.AddressInfo{Address: addr}, true, nil
}
func (fakeExplorer) AddressTransactions(ctx context.Context, addr string) ([]dto.Transaction, error) {
	return []dto.Transaction{}, nil
}
func (fakeExplorer) IsConfigured() bool             { return true }
func (fakeExplorer) Status() map[string]interface{} { return map[string]interface{}{"configured": true} }

type fakeStocks struct{ configured bool }

func (f fakeStocks) Quote(ctx context.Context, symbol string) (dto.StockAsset, bool, error) {
	if !f.configured {
		return dto.StockAsset{}, false, nil
	}
	return dto.StockAsset{Symbol: symbol}, true, nil
}
func (f fakeStocks) Batch(ctx context.Context, symbols []string) ([]dto.StockAsset, error) {
	out := make([]dto.StockAsset, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.StockAsset{Symbol: s})
	}
	return out, nil
}
func (f fakeStocks) Chart(ctx context.Context, symbol, timeframe string) ([]dto.ChartPoint, bool, error) {
	return []dto.ChartPoint{{Timestamp: 1}}, true, nil
}
func (f fakeStocks) Search(ctx context.Context, query string) ([]dto.SearchResult, error) {
	return []dto.SearchResult{}, nil
}
func (f fakeStocks) IsConfigured() bool             { return f.configured }
func (f fakeStocks) Status() map[string]interface{} { return map[string]interface{}{"configured": f.configured} }

type fakeStats struct{}

func (fakeStats) TotalBlocks(ctx context.Context) int64       { return 42 }
func (fakeStats) TotalTransactions(ctx context.Context) int64 { return 7 }

func testServer(t *testing.T, stocksConfigured bool) *Server {
	t.Helper()
	cfg := &config.Config{Env: "development", Port: 0, Allowlist: nil}
	log := zerolog.Nop()
	c := cache.New()
	f := fetch.New(nil, false)

	deps := Deps{
		Crypto: fakeCrypto{},
		Blockchain: map[string]BlockchainAdapter{
			"ethereum": fakeBlockchain{configured: true},
			"bitcoin":  fakeBlockchain{configured: true},
		},
		Explorer:     fakeExplorer{},
		Stocks:       fakeStocks{configured: stocksConfigured},
		Fundamentals: fundamentals.New(c, f, ""),
		LLM:          llm.New(c, f, "", 10, time.Minute),
		Stats:        fakeStats{},
		Cache:        c,
		StartedAt:    time.Now(),
	}
	return New(cfg, log, deps)
}

// testServerWithUnreachableFundamentals builds a server where Fundamentals
// reports IsConfigured()==true (an API key is set) but every upstream call
// fails, to exercise the transient-failure path distinctly from the
// not-configured path.
func testServerWithUnreachableFundamentals(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Env: "development", Port: 0, Allowlist: nil}
	log := zerolog.Nop()
	c := cache.New()
	f := fetch.New(nil, false)
	unreachable := fetch.New([]string{"unreachable.invalid"}, false)

	deps := Deps{
		Crypto: fakeCrypto{},
		Blockchain: map[string]BlockchainAdapter{
			"ethereum": fakeBlockchain{configured: true},
			"bitcoin":  fakeBlockchain{configured: true},
		},
		Explorer:     fakeExplorer{},
		Stocks:       fakeStocks{configured: true},
		Fundamentals: fundamentals.New(c, unreachable, "key"),
		LLM:          llm.New(c, f, "", 10, time.Minute),
		Stats:        fakeStats{},
		Cache:        c,
		StartedAt:    time.Now(),
	}
	return New(cfg, log, deps)
}

func decodeJSON(t *testing.T, body *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Body.Bytes(), out))
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReportsOK(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPricesReturnsCryptoQuotes(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/prices")
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []dto.PriceQuote
	decodeJSON(t, rec, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "bitcoin", out[0].ID)
}

func TestChartRejectsInvalidCoinID(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/chart/NotAValidID!/1D")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartRejectsInvalidRange(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/chart/bitcoin/5D")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartAcceptsValidParams(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/chart/bitcoin/1D")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBlockReturns404ForAbsentBlock(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/block/ethereum/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockRejectsUnknownChain(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/block/dogecoin/1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockDetailReturns404WhenAdapterReportsNotFound(t *testing.T) {
	s := testServer(t, false)
	rec := doRequest(s, http.MethodGet, "/api/stocks/AAPL")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoversReturns503WhenFundamentalsNotConfigured(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/stocks/movers/gainers")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Equal(t, false, body["configured"])
}

func TestStockDetailReturnsQuoteWhenConfigured(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/stocks/AAPL")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMoversRejectsUnknownKind(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/stocks/movers/whales")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/not-a-real-route")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAIStatusReportsUnconfigured(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/ai/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Equal(t, false, body["configured"])
}

func TestMoversDegradesToEmptyListOnTransientFailure(t *testing.T) {
	s := testServerWithUnreachableFundamentals(t)
	rec := doRequest(s, http.MethodGet, "/api/stocks/movers/gainers")
	assert.Equal(t, http.StatusOK, rec.Code)

	var rows []interface{}
	decodeJSON(t, rec, &rows)
	assert.Empty(t, rows)
}

func TestSectorsDegradesToEmptyListOnTransientFailure(t *testing.T) {
	s := testServerWithUnreachableFundamentals(t)
	rec := doRequest(s, http.MethodGet, "/api/stocks/sectors")
	assert.Equal(t, http.StatusOK, rec.Code)

	var rows []interface{}
	decodeJSON(t, rec, &rows)
	assert.Empty(t, rows)
}

func TestProbeTargetsCoversEveryConfiguredUpstream(t *testing.T) {
	s := testServer(t, true)
	targets := s.probeTargets()
	for _, name := range []string{"crypto", "stocks", "blockchain_ethereum", "blockchain_bitcoin"} {
		assert.Contains(t, targets, name)
	}
	assert.NotContains(t, targets, "fundamentals", "unconfigured fundamentals must not be probed")
	assert.NotContains(t, targets, "llm", "unconfigured llm must not be probed")
}

func TestProbeTargetsOmitsUnconfiguredStocks(t *testing.T) {
	s := testServer(t, false)
	targets := s.probeTargets()
	assert.NotContains(t, targets, "stocks")
}

func TestAPIRoutesSetRateLimitHeaders(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/prices")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestStatsReportsCounters(t *testing.T) {
	s := testServer(t, true)
	rec := doRequest(s, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Equal(t, float64(42), body["totalBlocks"])
	assert.Equal(t, float64(7), body["totalTransactions"])
}
