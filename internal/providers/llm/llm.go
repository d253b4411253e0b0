// Package llm wraps the generative-AI upstream: prompt-driven text
// generation with completion caching, a rate limiter guarding outbound
// quota, and a JSON extractor tolerant of fenced/truncated model output.
// Three high-level operations (parseSearchQuery, summarizeStock,
// marketOverview) sit on top of the wrapper.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/breaker"
	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
	"github.com/Lerner98/TickerHub-sub000/internal/ratelimit"
)

const (
	completionTTL = 2 * time.Hour

	temperature = 0.1
	maxTokens   = 4096

	baseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
)

// Wrapper is the LLM Wrapper component: generateContent/generateJSON never
// throw to their caller, returning (zero, false) on any failure.
type Wrapper struct {
	cache   *cache.Cache
	fetcher *fetch.Fetcher
	breaker *breaker.Breaker
	limiter *ratelimit.Window
	shared  ratelimit.SharedCounter
	apiKey  string

	maxRequests int
	windowSize  time.Duration
}

// New constructs the wrapper. maxRequests/windowSize size the fixed-window
// limiter guarding this upstream specifically (spec §4.4), enforced locally.
func New(c *cache.Cache, f *fetch.Fetcher, apiKey string, maxRequests int, windowSize time.Duration) *Wrapper {
	return &Wrapper{
		cache:       c,
		fetcher:     f,
		apiKey:      apiKey,
		limiter:     ratelimit.New(maxRequests, windowSize),
		maxRequests: maxRequests,
		windowSize:  windowSize,
		breaker: breaker.New(breaker.Config{
			Name: "llm", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 120 * time.Second,
		}),
	}
}

// WithSharedCounter makes the limiter's quota shared across every replica
// talking to the same Redis instance, instead of per-process. A nil or
// unreachable counter is a no-op fallback to the local Window.
func (w *Wrapper) WithSharedCounter(sc ratelimit.SharedCounter) *Wrapper {
	w.shared = sc
	return w
}

const sharedLimitKey = "tickerhub:ratelimit:llm"

func (w *Wrapper) IsConfigured() bool { return w.apiKey != "" }

// admitRequest consults the shared Redis counter when one is configured,
// falling back to the local fixed-window Window on any Redis failure so a
// flaky shared store degrades to per-process quota rather than open access.
func (w *Wrapper) admitRequest(ctx context.Context) bool {
	if w.shared != nil {
		if count, ok := w.shared.Incr(ctx, sharedLimitKey, w.windowSize); ok {
			return count <= int64(w.maxRequests)
		}
	}
	if !w.limiter.CheckRateLimit() {
		return false
	}
	w.limiter.RecordRequest()
	return true
}

func (w *Wrapper) Status() map[string]interface{} {
	return map[string]interface{}{
		"configured":        w.IsConfigured(),
		"available":         w.IsConfigured() && w.limiter.CheckRateLimit(),
		"requestsRemaining": w.limiter.GetStatus().RequestsRemaining,
	}
}

type generateContentReq struct {
	Contents []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResp struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateContent runs the five-step flow from spec §4.5. cacheKey may be
// empty to skip completion caching.
func (w *Wrapper) GenerateContent(ctx context.Context, prompt, cacheKey string) (string, bool) {
	if !w.IsConfigured() {
		return "", false
	}

	if cacheKey != "" {
		if v, ok := w.cache.Get(cacheKey, completionTTL); ok {
			return v.(string), true
		}
	}

	if !w.admitRequest(ctx) {
		return "", false
	}

	reqBody := generateContentReq{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", false
	}

	url := fmt.Sprintf("%s?key=%s", baseURL, w.apiKey)
	resp, err := breaker.Execute(w.breaker, func() (generateContentResp, error) {
		return postJSON[generateContentResp](ctx, w.fetcher, url, body, 20*time.Second)
	})
	if err != nil {
		return "", false
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if cacheKey != "" {
		w.cache.Set(cacheKey, text)
	}
	return text, true
}

// GenerateJSON wraps GenerateContent with the fenced/truncation-tolerant
// JSON extractor; downstream callers validate structure and supply defaults.
func GenerateJSON[T any](ctx context.Context, w *Wrapper, prompt, cacheKey string) (T, bool) {
	var zero T
	text, ok := w.GenerateContent(ctx, prompt, cacheKey)
	if !ok {
		return zero, false
	}
	candidate, ok := extractJSON(text)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return zero, false
	}
	return out, true
}

// postJSON issues a POST through the shared fetcher's PostWithTimeout (the
// same allowlist validation as every GET) and decodes the JSON response.
func postJSON[T any](ctx context.Context, f *fetch.Fetcher, url string, body []byte, timeout time.Duration) (T, error) {
	var zero T
	resp, err := f.PostWithTimeout(ctx, url, body, timeout)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, err
	}
	return out, nil
}

// --- High-level LLM Adapter operations (spec §4.6) ---

var sectorNames = []string{
	"technology", "healthcare", "financial", "energy", "industrial",
	"consumer", "materials", "utilities", "real estate", "telecommunications",
}

var commonWords = map[string]struct{}{
	"A": {}, "I": {}, "THE": {}, "AND": {}, "OR": {}, "FOR": {}, "TO": {},
	"IN": {}, "ON": {}, "UP": {}, "DOWN": {}, "VS": {},
}

var uppercaseToken = regexp.MustCompile(`^[A-Z]{1,5}$`)

// ParseSearchQuery always returns a result: the LLM path on success,
// otherwise the keyword-based fallback parser.
func (w *Wrapper) ParseSearchQuery(ctx context.Context, text string) dto.SearchFilters {
	prompt := fmt.Sprintf(
		"Parse this market search query into JSON with fields type, sector, priceRange, changeDirection, symbols, keywords, action. Query: %q",
		text,
	)
	if filters, ok := GenerateJSON[dto.SearchFilters](ctx, w, prompt, ""); ok {
		return NormalizeSearchFilters(filters)
	}
	return keywordFallbackParse(text)
}

// keywordFallbackParse scans for sector names, direction words, and
// short uppercase tokens that are not in the common-words set.
func keywordFallbackParse(text string) dto.SearchFilters {
	lower := strings.ToLower(text)

	filters := dto.SearchFilters{
		Type:            "both",
		ChangeDirection: "any",
		Action:          "search",
		Symbols:         []string{},
		Keywords:        []string{},
	}

	for _, s := range sectorNames {
		if strings.Contains(lower, s) {
			sector := s
			filters.Sector = &sector
			break
		}
	}

	if strings.Contains(lower, "up") || strings.Contains(lower, "gain") || strings.Contains(lower, "rising") {
		filters.ChangeDirection = "up"
	} else if strings.Contains(lower, "down") || strings.Contains(lower, "falling") || strings.Contains(lower, "loss") {
		filters.ChangeDirection = "down"
	}

	if strings.Contains(lower, "crypto") || strings.Contains(lower, "coin") {
		filters.Type = "crypto"
	} else if strings.Contains(lower, "stock") || strings.Contains(lower, "equity") {
		filters.Type = "stock"
	}

	if strings.Contains(lower, "compare") || strings.Contains(lower, " vs ") {
		filters.Action = "compare"
	}

	for _, word := range strings.Fields(text) {
		trimmed := strings.Trim(word, ".,!?")
		if !uppercaseToken.MatchString(trimmed) {
			continue
		}
		if _, common := commonWords[trimmed]; common {
			continue
		}
		filters.Symbols = append(filters.Symbols, trimmed)
	}

	filters.Keywords = strings.Fields(lower)
	return filters
}

var validSectors = map[string]struct{}{
	"technology": {}, "healthcare": {}, "financial": {}, "energy": {},
	"industrial": {}, "consumer": {}, "materials": {}, "utilities": {},
	"real estate": {}, "telecommunications": {},
}

// NormalizeSearchFilters normalizes invalid enum values to defaults and
// upper-cases all symbols, per spec §4.6.
func NormalizeSearchFilters(f dto.SearchFilters) dto.SearchFilters {
	switch f.Type {
	case "stock", "crypto", "both":
	default:
		f.Type = "both"
	}
	switch f.ChangeDirection {
	case "up", "down", "any":
	default:
		f.ChangeDirection = "any"
	}
	switch f.Action {
	case "search", "compare":
	default:
		f.Action = "search"
	}
	if f.Sector != nil {
		if _, ok := validSectors[strings.ToLower(*f.Sector)]; !ok {
			f.Sector = nil
		}
	}
	upper := make([]string, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		upper = append(upper, strings.ToUpper(s))
	}
	f.Symbols = upper
	if f.Keywords == nil {
		f.Keywords = []string{}
	}
	return f
}

// StockSummaryInput is the caller-assembled context GenerateJSON's prompt is
// built from; the LLM Adapter's caller fans out to the Stock and
// Fundamentals adapters in parallel to build this.
type StockSummaryInput struct {
	Symbol    string
	Price     float64
	ChangePct float64
	Sector    string
	News      []string
}

// SummarizeStock assembles a prompt from the given input and requests a
// structured summary, validating defaults on the result.
func (w *Wrapper) SummarizeStock(ctx context.Context, in StockSummaryInput) (dto.StockSummary, bool) {
	prompt := fmt.Sprintf(
		"Summarize %s (price %.2f, change %.2f%%, sector %s) as JSON with fields sentiment{score,label}, summary, keyPoints{positive,negative,neutral}, catalysts, risks.",
		in.Symbol, in.Price, in.ChangePct, in.Sector,
	)
	cacheKey := cache.AISummaryKey(in.Symbol)

	summary, ok := GenerateJSON[dto.StockSummary](ctx, w, prompt, cacheKey)
	if !ok {
		return dto.StockSummary{}, false
	}
	summary.Symbol = in.Symbol
	summary.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	summary.DataSource = "llm"
	summary.KeyPoints = capKeyPoints(summary.KeyPoints)
	if summary.Sentiment.Score < 1 || summary.Sentiment.Score > 10 {
		summary.Sentiment.Score = 5
	}
	return summary, true
}

func capKeyPoints(kp dto.KeyPoints) dto.KeyPoints {
	cap3 := func(s []string) []string {
		if len(s) > 3 {
			return s[:3]
		}
		return s
	}
	return dto.KeyPoints{
		Positive: cap3(kp.Positive),
		Negative: cap3(kp.Negative),
		Neutral:  cap3(kp.Neutral),
	}
}

// MarketOverview requests a whole-market narrative.
func (w *Wrapper) MarketOverview(ctx context.Context) (dto.MarketOverview, bool) {
	prompt := "Summarize current overall market sentiment as JSON with fields sentiment (Risk-On/Risk-Off/Mixed/Neutral), summary, topThemes, sectorsToWatch{bullish,bearish}, outlook."
	overview, ok := GenerateJSON[dto.MarketOverview](ctx, w, prompt, cache.AIMarketKey())
	if !ok {
		return dto.MarketOverview{}, false
	}
	switch overview.Sentiment {
	case "Risk-On", "Risk-Off", "Mixed", "Neutral":
	default:
		overview.Sentiment = "Neutral"
	}
	overview.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return overview, true
}
