// Package dispatch is the Route Dispatcher: path matching, parameter
// validation, policy composition, status-code selection, and response
// shaping for every route in spec §6. Grounded on the gorilla/mux server
// shape used elsewhere in this codebase's lineage, generalized with
// structured logging, a request-body cap, and per-IP rate limiting.
package dispatch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Lerner98/TickerHub-sub000/internal/config"
	"github.com/Lerner98/TickerHub-sub000/internal/ratelimit"
)

// maxRequestBodyBytes caps inbound bodies to deflect payload-bomb attacks
// (spec §5 resource caps).
const maxRequestBodyBytes = 10 * 1024

// allowedOrigins is the standard CORS allowlist; credentials are allowed.
var allowedOrigins = map[string]struct{}{
	"http://localhost:3000": {},
	"http://localhost:5173": {},
}

// Server is the gateway's HTTP front door.
type Server struct {
	router *mux.Router
	http   *http.Server
	cfg    *config.Config
	log    zerolog.Logger

	ipLimiter *ratelimit.IPLimiter

	deps Deps
}

// Deps bundles everything route handlers need. Composed here rather than
// threaded per-handler so new routes don't grow the constructor signature.
type Deps struct {
	Crypto        CryptoAdapter
	Blockchain    map[string]BlockchainAdapter
	Explorer      ExplorerAdapter
	Stocks        StockAdapter
	Fundamentals  FundamentalsAdapter
	LLM           LLMAdapter
	Stats         StatsSource
	Cache         CacheStats
	MockMode      bool
	StartedAt     time.Time
}

// New constructs the server and wires every route from spec §6.
func New(cfg *config.Config, log zerolog.Logger, deps Deps) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		cfg:       cfg,
		log:       log,
		ipLimiter: ratelimit.NewIPLimiter(100),
		deps:      deps,
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.bodyLimitMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/prices", s.handlePrices).Methods("GET")
	api.HandleFunc("/prices/batch", s.handlePricesBatch).Methods("GET")
	api.HandleFunc("/chart/{coinId}/{range}", s.handleChart).Methods("GET")

	api.HandleFunc("/network/{chain}", s.handleNetwork).Methods("GET")
	api.HandleFunc("/blocks/{chain}/{limit}/{page}", s.handleBlocks).Methods("GET")
	api.HandleFunc("/block/{chain}/{number}", s.handleBlock).Methods("GET")
	api.HandleFunc("/block/{chain}/{number}/transactions", s.handleBlockTxs).Methods("GET")
	api.HandleFunc("/tx/{hash}", s.handleTx).Methods("GET")
	api.HandleFunc("/address/{address}", s.handleAddress).Methods("GET")
	api.HandleFunc("/address/{address}/transactions", s.handleAddressTxs).Methods("GET")

	api.HandleFunc("/stocks", s.handleStocksTop).Methods("GET")
	api.HandleFunc("/stocks/status", s.handleStocksStatus).Methods("GET")
	api.HandleFunc("/stocks/batch", s.handleStocksBatch).Methods("GET")
	api.HandleFunc("/stocks/search", s.handleStocksSearch).Methods("GET")
	api.HandleFunc("/stocks/movers/{kind}", s.handleMovers).Methods("GET")
	api.HandleFunc("/stocks/sectors", s.handleSectors).Methods("GET")
	api.HandleFunc("/stocks/news", s.handleGeneralNews).Methods("GET")
	api.HandleFunc("/stocks/calendar/earnings", s.handleCalendarEarnings).Methods("GET")
	api.HandleFunc("/stocks/calendar/dividends", s.handleCalendarDividends).Methods("GET")
	api.HandleFunc("/stocks/calendar/ipos", s.handleCalendarIPOs).Methods("GET")
	api.HandleFunc("/stocks/calendar/splits", s.handleCalendarSplits).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/chart", s.handleStockChart).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/profile", s.handleStockProfile).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/news", s.handleStockNews).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/earnings", s.handleStockEarnings).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/grades", s.handleStockGrades).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/consensus", s.handleStockConsensus).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/price-target", s.handleStockPriceTarget).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/price-targets", s.handleStockPriceTargets).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/estimates", s.handleStockEstimates).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/income", s.handleStockIncome).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/balance-sheet", s.handleStockBalanceSheet).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/cash-flow", s.handleStockCashFlow).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/metrics", s.handleStockMetrics).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/institutions", s.handleStockInstitutions).Methods("GET")
	api.HandleFunc("/stocks/{symbol}", s.handleStockDetail).Methods("GET")

	api.HandleFunc("/ai/search", s.handleAISearch).Methods("POST")
	api.HandleFunc("/ai/summary/{symbol}", s.handleAISummary).Methods("GET")
	api.HandleFunc("/ai/market", s.handleAIMarket).Methods("GET")
	api.HandleFunc("/ai/status", s.handleAIStatus).Methods("GET")

	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.router.Handle("/metrics", s.metricsHandler())

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start runs the server until the process is signaled to stop.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("gateway listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.log.Info().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey{}))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowedOrigins[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware enforces the per-IP fixed-capacity limiter from spec
// §5, emitting the X-RateLimit-* headers on every response and 429+
// Retry-After on rejection.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPOnly(ratelimit.ClientIP(r))
		allowed := s.ipLimiter.Allow(ip)

		status := s.ipLimiter.Status(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetSecs, 10))

		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIPOnly(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.TrimSpace(strings.Split(hostport, ",")[0])
	}
	return host
}
