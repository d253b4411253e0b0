package dispatch

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Lerner98/TickerHub-sub000/internal/providers/crypto"
)

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.deps.Crypto.TopCoins(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upstream_error", "failed to load prices", nil)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handlePricesBatch(w http.ResponseWriter, r *http.Request) {
	ids := splitCSV(r.URL.Query().Get("ids"))
	if len(ids) == 0 || len(ids) > 50 {
		writeError(w, http.StatusBadRequest, "validation_error", "ids must be 1-50 comma-separated values", nil)
		return
	}
	quotes, err := s.deps.Crypto.TopCoins(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upstream_error", "failed to load prices", nil)
		return
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]interface{}, 0, len(ids))
	for _, q := range quotes {
		if _, ok := want[q.ID]; ok {
			out = append(out, q)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	coinID, rng := vars["coinId"], vars["range"]

	if !crypto.ValidCoinID(coinID) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid coinId", map[string]string{"field": "coinId"})
		return
	}
	if !crypto.ValidRange(rng) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid range", map[string]string{"field": "range"})
		return
	}

	points, err := s.deps.Crypto.Chart(r.Context(), coinID, rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load chart", nil)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
