// Package ratelimit implements the fixed-window counter guarding the LLM
// upstream (spec §4.4) and the per-IP token-bucket limiter for the public
// surface (spec §5 "Resource caps").
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

// Window is a fixed-window counter: {count, windowStartedAt}. On each
// admission attempt, if now-windowStartedAt exceeds windowSize the window
// resets before being consulted.
type Window struct {
	mu sync.Mutex
	clk clock.Clock

	maxRequests int
	windowSize  time.Duration

	count          int
	windowStartedAt time.Time
}

// New constructs a fixed-window limiter using the real clock.
func New(maxRequests int, windowSize time.Duration) *Window {
	return NewWithClock(maxRequests, windowSize, clock.New())
}

func NewWithClock(maxRequests int, windowSize time.Duration, clk clock.Clock) *Window {
	return &Window{
		clk:             clk,
		maxRequests:     maxRequests,
		windowSize:      windowSize,
		windowStartedAt: clk.Now(),
	}
}

func (w *Window) resetIfExpired() {
	if w.clk.Now().Sub(w.windowStartedAt) > w.windowSize {
		w.count = 0
		w.windowStartedAt = w.clk.Now()
	}
}

// CheckRateLimit reports whether a call is currently admissible, without
// consuming a slot. The LLM wrapper calls this before generateContent.
func (w *Window) CheckRateLimit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetIfExpired()
	return w.count < w.maxRequests
}

// RecordRequest atomically increments the counter. Call after CheckRateLimit
// returns true and the caller has decided to proceed.
func (w *Window) RecordRequest() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetIfExpired()
	w.count++
}

// Allow is CheckRateLimit+RecordRequest as one atomic admission decision.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetIfExpired()
	if w.count < w.maxRequests {
		w.count++
		return true
	}
	return false
}

// Status reports remaining quota in the current window.
type Status struct {
	RequestsRemaining int `json:"requestsRemaining"`
}

func (w *Window) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetIfExpired()
	remaining := w.maxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{RequestsRemaining: remaining}
}

// SharedCounter backs a Window with Redis INCR/EXPIRE so multiple gateway
// replicas share one quota against the LLM upstream. RedisCounter in
// redis.go is the go-redis implementation.
type SharedCounter interface {
	// Incr increments the counter for key, setting its TTL on first
	// creation, and returns the post-increment value. ok=false means the
	// backing store was unreachable and the caller should fall back to the
	// in-process Window.
	Incr(ctx context.Context, key string, ttl time.Duration) (count int64, ok bool)
}

// IPLimiter is a per-client-IP token-bucket limiter for the public HTTP
// surface, built on golang.org/x/time/rate the way the rest of the gateway's
// dependency stack is used for ambient concerns.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewIPLimiter builds a limiter admitting roughly requestsPerMinute per
// client IP, with bursts up to that same figure.
func NewIPLimiter(requestsPerMinute int) *IPLimiter {
	rps := rate.Limit(float64(requestsPerMinute) / 60.0)
	return &IPLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    requestsPerMinute,
	}
}

func (l *IPLimiter) forIP(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// Allow reports whether the given client IP may proceed right now.
func (l *IPLimiter) Allow(ip string) bool {
	return l.forIP(ip).Allow()
}

// IPStatus is the per-request X-RateLimit-* header values for one client IP.
type IPStatus struct {
	Limit     int
	Remaining int
	ResetSecs int64
}

// Status reports the current token-bucket state for ip without consuming a
// token, for the X-RateLimit-{Limit,Remaining,Reset} headers spec §6 requires
// on every /api/* response.
func (l *IPLimiter) Status(ip string) IPStatus {
	lim := l.forIP(ip)
	tokens := lim.Tokens()
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > l.burst {
		remaining = l.burst
	}

	var resetSecs int64
	if deficit := float64(l.burst) - tokens; deficit > 0 && l.rps > 0 {
		resetSecs = int64(deficit/float64(l.rps)) + 1
	}

	return IPStatus{Limit: l.burst, Remaining: remaining, ResetSecs: resetSecs}
}

// ClientIP extracts the caller's address for rate-limiting purposes,
// preferring X-Forwarded-For (set by a trusted proxy) over RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
