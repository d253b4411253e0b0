package dispatch

import (
	"context"

	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/fundamentals"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/llm"
)

// The interfaces below are the dispatcher's view of each provider adapter —
// narrow enough that handlers depend only on the operations spec §6 names,
// and that package dispatch never imports the concrete provider packages'
// internals (keeping adapter construction in cmd/gateway).

type CryptoAdapter interface {
	TopCoins(ctx context.Context) ([]dto.PriceQuote, error)
	Chart(ctx context.Context, coinID, rng string) ([]dto.ChartPoint, error)
}

type BlockchainAdapter interface {
	NetworkStats(ctx context.Context) (dto.NetworkStats, error)
	ListBlocks(ctx context.Context, limit, page int) ([]dto.Block, error)
	GetBlock(ctx context.Context, number string) (dto.Block, error)
	GetBlockTransactions(ctx context.Context, number string) ([]dto.Transaction, error)
	IsConfigured() bool
	Status() map[string]interface{}
}

type ExplorerAdapter interface {
	Transaction(ctx context.Context, hash string) (dto.Transaction, bool, error)
	Address(ctx context.Context, addr string) (dto.AddressInfo, bool, error)
	AddressTransactions(ctx context.Context, addr string) ([]dto.Transaction, error)
	IsConfigured() bool
	Status() map[string]interface{}
}

type StockAdapter interface {
	Quote(ctx context.Context, symbol string) (dto.StockAsset, bool, error)
	Batch(ctx context.Context, symbols []string) ([]dto.StockAsset, error)
	Chart(ctx context.Context, symbol, timeframe string) ([]dto.ChartPoint, bool, error)
	Search(ctx context.Context, query string) ([]dto.SearchResult, error)
	IsConfigured() bool
	Status() map[string]interface{}
}

// FundamentalsAdapter is satisfied directly by *fundamentals.Adapter; named
// here so handlers type against the dispatch package, not the provider one.
type FundamentalsAdapter = *fundamentals.Adapter

// LLMAdapter is satisfied directly by *llm.Wrapper.
type LLMAdapter = *llm.Wrapper

// StatsSource reports the platform counters behind GET /api/stats.
type StatsSource interface {
	TotalBlocks(ctx context.Context) int64
	TotalTransactions(ctx context.Context) int64
}

// CacheStats is satisfied by *cache.Cache.
type CacheStats = *cache.Cache
