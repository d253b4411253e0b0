package dispatch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

type serviceHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
}

// probeTargets is the set of upstream hosts the health endpoint lightly
// probes via safeFetch, per spec §4.7. Every upstream the gateway fronts
// gets an entry, gated by the matching adapter's IsConfigured() the way
// "stocks" already was — an adapter with no credentials configured has
// nothing to probe and would only ever report a false "error".
func (s *Server) probeTargets() map[string]string {
	targets := map[string]string{
		"crypto": "https://api.coingecko.com/api/v3/ping",
	}
	if s.deps.Stocks.IsConfigured() {
		targets["stocks"] = "https://financialmodelingprep.com/api/v3/quote/AAPL"
	}
	if a, ok := s.deps.Blockchain["ethereum"]; ok && a.IsConfigured() {
		targets["blockchain_ethereum"] = "https://api.etherscan.io/api?module=proxy&action=eth_blockNumber"
	}
	if a, ok := s.deps.Blockchain["bitcoin"]; ok && a.IsConfigured() {
		targets["blockchain_bitcoin"] = "https://api.blockchair.com/bitcoin/stats"
	}
	if s.deps.Fundamentals.IsConfigured() {
		targets["fundamentals"] = "https://financialmodelingprep.com/api/v3/stock_market/gainers"
	}
	if s.deps.LLM.IsConfigured() {
		targets["llm"] = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	return targets
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	services := make(map[string]serviceHealth)
	allOK := true

	type probeResult struct {
		name string
		ok   bool
		ms   int64
	}
	results := make(chan probeResult, len(s.probeTargets()))

	for name, url := range s.probeTargets() {
		go func(name, url string) {
			probeStart := time.Now()
			f := fetch.New([]string{urlHost(url)}, s.cfg.IsProduction())
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			_, ok := fetch.SafeFetch[map[string]interface{}](ctx, f, url, 3*time.Second)
			results <- probeResult{name: name, ok: ok, ms: time.Since(probeStart).Milliseconds()}
		}(name, url)
	}

	for range s.probeTargets() {
		res := <-results
		status := "ok"
		if !res.ok {
			status = "error"
			allOK = false
		}
		services[res.name] = serviceHealth{Status: status, ResponseTime: res.ms}
	}

	overall := "ok"
	statusCode := http.StatusOK
	if !allOK {
		overall = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"uptime":       time.Since(s.deps.StartedAt).Seconds(),
		"responseTime": time.Since(start).Milliseconds(),
		"services":     services,
		"cache":        s.deps.Cache.Stats(),
		"environment":  s.cfg.Env,
	})
}

// handleHealthz is a minimal liveness probe for orchestrators, distinct from
// the rich aggregate /api/health the SPA polls.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalBlocks":       s.deps.Stats.TotalBlocks(r.Context()),
		"totalTransactions": s.deps.Stats.TotalTransactions(r.Context()),
		"networksSupported": len(s.deps.Blockchain),
		"uptime":            time.Since(s.deps.StartedAt).Seconds(),
	})
}

// urlHost extracts just the host for allowlisting a one-off health probe
// fetcher; a malformed url yields an empty host, which simply fails to
// match any allowlist and is reported as a failed probe.
func urlHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
