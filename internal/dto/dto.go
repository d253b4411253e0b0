// Package dto holds the stable, client-facing shapes every provider adapter
// normalizes into. None of these types carry upstream-specific field names;
// that translation happens entirely inside each adapter's normalizer.
package dto

// PriceQuote is a single cryptocurrency quote.
type PriceQuote struct {
	ID                 string    `json:"id"`
	Symbol             string    `json:"symbol"`
	Name               string    `json:"name"`
	Image              string    `json:"image"`
	Price              float64   `json:"price"`
	Change24h          float64   `json:"change24h"`
	ChangePercent24h   float64   `json:"changePercent24h"`
	MarketCap          float64   `json:"marketCap"`
	Volume24h          float64   `json:"volume24h"`
	High24h            float64   `json:"high24h"`
	Low24h             float64   `json:"low24h"`
	Sparkline          []float64 `json:"sparkline,omitempty"`
}

// StockAsset is a normalized equity quote, possibly merged from two providers.
type StockAsset struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	Change24h        float64  `json:"change24h"`
	ChangePercent24h float64  `json:"changePercent24h"`
	Volume24h        float64  `json:"volume24h"`
	High24h          float64  `json:"high24h"`
	Low24h           float64  `json:"low24h"`
	Exchange         string   `json:"exchange"`
	Currency         string   `json:"currency"`
	MarketCap        *float64 `json:"marketCap,omitempty"`
	PE               *float64 `json:"pe,omitempty"`
	Sector           *string  `json:"sector,omitempty"`
	PreviousClose    float64  `json:"previousClose"`
	Open             float64  `json:"open"`
	LastUpdated      int64    `json:"lastUpdated"`
}

// ChartPoint is one sample of a price series, in ascending timestamp order.
type ChartPoint struct {
	Timestamp int64    `json:"timestamp"`
	Price     float64  `json:"price"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Close     *float64 `json:"close,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// GasPrice is the low/average/high projection reported on NetworkStats.
type GasPrice struct {
	Low     float64 `json:"low"`
	Average float64 `json:"average"`
	High    float64 `json:"high"`
	Unit    string  `json:"unit"`
}

// NetworkStats summarizes one chain's health.
type NetworkStats struct {
	Chain           string    `json:"chain"`
	BlockHeight     uint64    `json:"blockHeight"`
	TPS             float64   `json:"tps"`
	AvgBlockTime    float64   `json:"avgBlockTime"`
	HashRate        *string   `json:"hashRate,omitempty"`
	GasPrice        *GasPrice `json:"gasPrice,omitempty"`
}

// Block is one block on a supported chain.
type Block struct {
	Number    uint64  `json:"number"`
	Hash      string  `json:"hash"`
	Timestamp int64   `json:"timestamp"`
	TxCount   int     `json:"txCount"`
	Miner     string  `json:"miner"`
	Size      uint64  `json:"size"`
	GasUsed   *uint64 `json:"gasUsed,omitempty"`
	GasLimit  *uint64 `json:"gasLimit,omitempty"`
	ParentHash string `json:"parentHash"`
	Reward    string  `json:"reward"`
	Chain     string  `json:"chain"`
}

// TxStatus is the enum of spec §3's Transaction.status.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction is one on-chain transaction, values kept as strings to avoid
// losing wei/satoshi precision across the JSON boundary.
type Transaction struct {
	Hash          string   `json:"hash"`
	BlockNumber   uint64   `json:"blockNumber"`
	Timestamp     int64    `json:"timestamp"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	Value         string   `json:"value"`
	Fee           string   `json:"fee"`
	Gas           *uint64  `json:"gas,omitempty"`
	Status        TxStatus `json:"status"`
	Confirmations uint64   `json:"confirmations"`
	Input         *string  `json:"input,omitempty"`
	Chain         string   `json:"chain"`
}

// AddressInfo is a chain address summary.
type AddressInfo struct {
	Address      string  `json:"address"`
	Balance      string  `json:"balance"`
	TxCount      uint64  `json:"txCount"`
	Chain        string  `json:"chain"`
	FirstSeen    *int64  `json:"firstSeen,omitempty"`
	LastActivity *int64  `json:"lastActivity,omitempty"`
}

// SearchFilters is the LLM-parsed (or keyword-fallback) structured query.
type SearchFilters struct {
	Type            string   `json:"type"`
	Sector          *string  `json:"sector"`
	PriceRange      *string  `json:"priceRange"`
	ChangeDirection string   `json:"changeDirection"`
	Symbols         []string `json:"symbols"`
	Keywords        []string `json:"keywords"`
	Action          string   `json:"action"`
}

// KeyPoints groups a stock summary's bulleted takeaways, each capped at 3.
type KeyPoints struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// Sentiment is a 1-10 score paired with a five-level label.
type Sentiment struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// StockSummary is the LLM-generated narrative analysis of one symbol.
type StockSummary struct {
	Symbol      string    `json:"symbol"`
	Sentiment   Sentiment `json:"sentiment"`
	Summary     string    `json:"summary"`
	KeyPoints   KeyPoints `json:"keyPoints"`
	Catalysts   []string  `json:"catalysts"`
	Risks       []string  `json:"risks"`
	GeneratedAt string    `json:"generatedAt"`
	DataSource  string    `json:"dataSource"`
}

// SectorsToWatch splits a market overview's sector calls by direction.
type SectorsToWatch struct {
	Bullish []string `json:"bullish"`
	Bearish []string `json:"bearish"`
}

// MarketOverview is the LLM-generated whole-market narrative.
type MarketOverview struct {
	Sentiment      string         `json:"sentiment"`
	Summary        string         `json:"summary"`
	TopThemes      []string       `json:"topThemes"`
	SectorsToWatch SectorsToWatch `json:"sectorsToWatch"`
	Outlook        string         `json:"outlook"`
	GeneratedAt    string         `json:"generatedAt"`
}

// Mover is one row of a gainers/losers/actives listing.
type Mover struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ChangePercent24h float64 `json:"changePercent24h"`
	Volume24h        float64 `json:"volume24h"`
}

// SearchResult is the shape-specific row of GET /stocks/search.
type SearchResult struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}
