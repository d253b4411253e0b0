package dispatch

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// fundamentalsHandler is the common shape every per-symbol fundamentals
// route follows: configured check, fetch, shape or 404/503.
func (s *Server) fundamentalsHandler(fetchFn func(symbol string) (interface{}, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(mux.Vars(r)["symbol"])
		if !s.deps.Fundamentals.IsConfigured() {
			writeNotConfigured(w, "fundamentals")
			return
		}
		data, ok := fetchFn(symbol)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "no data for symbol", nil)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) handleStockProfile(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.Profile(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockNews(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.News(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockEarnings(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.Estimates(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockGrades(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.Grades(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockConsensus(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.GradeConsensus(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockPriceTarget(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.PriceTargetConsensus(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockPriceTargets(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.PriceTargets(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockEstimates(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.Estimates(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockIncome(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.IncomeStatement(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockBalanceSheet(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.BalanceSheet(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockCashFlow(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.CashFlow(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockMetrics(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.Metrics(r.Context(), symbol)
	})(w, r)
}

func (s *Server) handleStockInstitutions(w http.ResponseWriter, r *http.Request) {
	s.fundamentalsHandler(func(symbol string) (interface{}, bool) {
		return s.deps.Fundamentals.InstitutionalHolders(r.Context(), symbol)
	})(w, r)
}

// marketWideHandler is the common shape for the whole-market routes: no
// symbol, configured check, fetch, then listing degradation on failure.
func (s *Server) marketWideHandler(fetchFn func() (interface{}, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Fundamentals.IsConfigured() {
			writeNotConfigured(w, "fundamentals")
			return
		}
		data, ok := fetchFn()
		if !ok {
			// Configured but the upstream call failed transiently — every
			// route behind this handler returns a list, so it degrades to
			// an empty list (spec §4.7) rather than reporting "not
			// configured" a second time.
			writeJSON(w, http.StatusOK, []interface{}{})
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.SectorPerformance(r.Context()) })(w, r)
}

func (s *Server) handleGeneralNews(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.GeneralNews(r.Context()) })(w, r)
}

func (s *Server) handleCalendarEarnings(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.EarningsCalendar(r.Context()) })(w, r)
}

func (s *Server) handleCalendarDividends(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.DividendsCalendar(r.Context()) })(w, r)
}

func (s *Server) handleCalendarIPOs(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.IPOCalendar(r.Context()) })(w, r)
}

func (s *Server) handleCalendarSplits(w http.ResponseWriter, r *http.Request) {
	s.marketWideHandler(func() (interface{}, bool) { return s.deps.Fundamentals.SplitsCalendar(r.Context()) })(w, r)
}
