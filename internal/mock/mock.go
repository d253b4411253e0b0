// Package mock holds seeded fake fixtures for crypto quotes, charts, stock
// quotes and blocks, kept apart from the real adapters. No other package
// imports it, and Config.MockMode is not read by any route, so setting
// MOCK_MODE does not switch any endpoint to these fixtures.
package mock

import (
	_ "embed"
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lerner98/TickerHub-sub000/internal/dto"
)

// rng is seeded once per process so repeated calls produce a stable
// (but clearly fake) shape across a dev session, rather than a fresh
// random draw per request.
var rng = rand.New(rand.NewSource(42))

//go:embed fixtures.yaml
var fixturesYAML []byte

type coinSeed struct {
	ID     string `yaml:"id"`
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

type fixtures struct {
	Coins []coinSeed `yaml:"coins"`
}

// seedCoins is parsed once at package init. A malformed or missing embed
// falls back to a small hardcoded seed rather than returning an empty list,
// matching the teacher's own config-with-sane-defaults style.
var seedCoins = loadSeedCoins()

func loadSeedCoins() []coinSeed {
	var f fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil || len(f.Coins) == 0 {
		return []coinSeed{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		}
	}
	return f.Coins
}

// TopCoins returns a fixed, plausibly-shaped set of crypto quotes.
func TopCoins() []dto.PriceQuote {
	out := make([]dto.PriceQuote, 0, len(seedCoins))
	for _, n := range seedCoins {
		price := 100 + rng.Float64()*50000
		out = append(out, dto.PriceQuote{
			ID: n.ID, Symbol: n.Symbol, Name: n.Name,
			Price:            price,
			Change24h:        price * 0.01,
			ChangePercent24h: 1.0,
			MarketCap:        price * 19_000_000,
			Volume24h:        price * 1_000_000,
			High24h:          price * 1.02,
			Low24h:           price * 0.98,
		})
	}
	return out
}

// Chart returns a fixed-length ascending-timestamp fake price series.
func Chart(n int) []dto.ChartPoint {
	if n <= 0 {
		n = 50
	}
	out := make([]dto.ChartPoint, 0, n)
	now := time.Now().Unix()
	base := 100 + rng.Float64()*1000
	for i := 0; i < n; i++ {
		out = append(out, dto.ChartPoint{
			Timestamp: now - int64(n-i)*3600,
			Price:     base + rng.Float64()*10,
		})
	}
	return out
}

// StockAsset returns a fake quote for the given symbol.
func StockAsset(symbol string) dto.StockAsset {
	price := 50 + rng.Float64()*450
	return dto.StockAsset{
		ID: symbol, Type: "stock", Symbol: symbol, Name: symbol + " Inc.",
		Price: price, Change24h: price * 0.005, ChangePercent24h: 0.5,
		Exchange: "NASDAQ", Currency: "USD",
		PreviousClose: price * 0.995, Open: price * 0.998,
		LastUpdated: time.Now().UnixMilli(),
	}
}

// Block returns a fake block for chain at number.
func Block(chain string, number uint64) dto.Block {
	return dto.Block{
		Number:     number,
		Hash:       fmt.Sprintf("0x%016x%016x", rng.Uint64(), rng.Uint64()),
		Timestamp:  time.Now().Unix(),
		TxCount:    rng.Intn(200),
		Miner:      "mock-miner",
		Size:       20_000,
		ParentHash: fmt.Sprintf("0x%016x%016x", rng.Uint64(), rng.Uint64()),
		Reward:     "2.0",
		Chain:      chain,
	}
}
