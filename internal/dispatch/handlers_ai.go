package dispatch

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Lerner98/TickerHub-sub000/internal/providers/llm"
)

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleAISearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "query is required", map[string]string{"field": "query"})
		return
	}

	filters := s.deps.LLM.ParseSearchQuery(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, filters)
}

func (s *Server) handleAISummary(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "symbol is required", map[string]string{"field": "symbol"})
		return
	}

	newsCh := make(chan []string, 1)
	go func() {
		var headlines []string
		if items, ok := s.deps.Fundamentals.News(r.Context(), symbol); ok {
			for _, it := range items {
				headlines = append(headlines, it.Title)
			}
		}
		newsCh <- headlines
	}()

	asset, found, err := s.deps.Stocks.Quote(r.Context(), symbol)
	if err != nil || !found {
		writeError(w, http.StatusNotFound, "not_found", "symbol not found", nil)
		return
	}

	var sector string
	if asset.Sector != nil {
		sector = *asset.Sector
	}
	newsHeadlines := <-newsCh

	summary, ok := s.deps.LLM.SummarizeStock(r.Context(), llm.StockSummaryInput{
		Symbol: symbol, Price: asset.Price, ChangePct: asset.ChangePercent24h,
		Sector: sector, News: newsHeadlines,
	})
	if !ok {
		writeNotConfigured(w, "llm")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAIMarket(w http.ResponseWriter, r *http.Request) {
	overview, ok := s.deps.LLM.MarketOverview(r.Context())
	if !ok {
		writeNotConfigured(w, "llm")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	status := s.deps.LLM.Status()
	status["features"] = []string{"search", "summary", "market-overview"}
	writeJSON(w, http.StatusOK, status)
}
