package dispatch

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Lerner98/TickerHub-sub000/internal/providers/stocks"
)

func (s *Server) handleStocksTop(w http.ResponseWriter, r *http.Request) {
	// "Top 10" per spec §6; the adapter has no dedicated top-N upstream call,
	// so this composes the list via Batch on a fixed ten-symbol watchlist
	// seed; no movers/actives feed is consulted.
	seed := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK.B", "JPM", "V"}
	assets, err := s.deps.Stocks.Batch(r.Context(), seed)
	if err != nil {
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	asset, found, err := s.deps.Stocks.Quote(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load quote", nil)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "symbol not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1D"
	}
	if !stocks.ValidTimeframe(timeframe) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid timeframe", map[string]string{"field": "timeframe"})
		return
	}
	points, found, err := s.deps.Stocks.Chart(r.Context(), symbol, timeframe)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load chart", nil)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "no chart data", nil)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleStocksBatch(w http.ResponseWriter, r *http.Request) {
	symbols := splitCSV(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "symbols is required", map[string]string{"field": "symbols"})
		return
	}
	assets, err := s.deps.Stocks.Batch(r.Context(), symbols)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load batch", nil)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleStocksSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "q is required", map[string]string{"field": "q"})
		return
	}
	results, err := s.deps.Stocks.Search(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to search", nil)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if !validMoverKind(kind) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid mover kind", map[string]string{"field": "kind"})
		return
	}
	if !s.deps.Fundamentals.IsConfigured() {
		writeNotConfigured(w, "fundamentals")
		return
	}

	var (
		rows interface{}
		ok   bool
	)
	switch kind {
	case "gainers":
		rows, ok = s.deps.Fundamentals.Gainers(r.Context())
	case "losers":
		rows, ok = s.deps.Fundamentals.Losers(r.Context())
	case "actives":
		rows, ok = s.deps.Fundamentals.Actives(r.Context())
	}
	if !ok {
		// Fundamentals is configured; a !ok here is a transient upstream
		// failure, not a "not configured" state. Movers is a listing route,
		// so it degrades to an empty list per spec §4.7 rather than
		// reusing the not-configured 503.
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleStocksStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stocks.Status())
}
