// Package breaker implements the per-upstream circuit breaker from spec §4.2.
// One Breaker guards one upstream; state tables across breakers are
// independent, and every transition on a single breaker is serialized.
//
// github.com/sony/gobreaker (the teacher's own circuit-breaker dependency)
// was evaluated first and not used here — see DESIGN.md for why: the
// HALF_OPEN trial handling below does not map onto gobreaker's
// ReadyToTrip/IsSuccessful hooks. This
// hand-rolled state machine instead follows the same shape the teacher
// already uses internally in its own datasource circuit breaker.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

// State is one of the three breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Execute when the circuit is open and not yet ready
// for a trial call.
var ErrOpen = errors.New("circuit open")

// Breaker guards calls to one named upstream.
type Breaker struct {
	mu sync.Mutex
	clk clock.Clock

	name             string
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration

	state        State
	failureCount int
	successCount int
	lastFailureAt time.Time
}

// Config holds the tunable thresholds for one breaker instance.
type Config struct {
	Name             string
	FailureThreshold int           // typ. 3-5
	SuccessThreshold int           // typ. 2
	ResetTimeout     time.Duration // typ. 60-120s
}

// New constructs a breaker in the CLOSED state using the real clock.
func New(cfg Config) *Breaker {
	return NewWithClock(cfg, clock.New())
}

// NewWithClock constructs a breaker using the given clock, for deterministic
// tests of the resetTimeout transition.
func NewWithClock(cfg Config, clk clock.Clock) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	return &Breaker{
		clk:              clk,
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		resetTimeout:     cfg.ResetTimeout,
		state:            Closed,
	}
}

func (b *Breaker) Name() string { return b.name }

// admit decides, under lock, whether a call may proceed right now; it also
// performs the OPEN -> HALF_OPEN transition when resetTimeout has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if b.clk.Now().Sub(b.lastFailureAt) >= b.resetTimeout {
			b.state = HalfOpen
			return nil
		}
		return ErrOpen
	case HalfOpen:
		return nil
	}
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount = 0
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = Closed
			b.failureCount = 0
			b.successCount = 0
		}
	case Open:
		// A success while open should not happen (admit rejects first), but
		// guard against it by treating it like a half-open success.
		b.state = Closed
		b.failureCount = 0
		b.successCount = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clk.Now()

	switch b.state {
	case Closed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.state = Open
			b.lastFailureAt = now
		}
	case HalfOpen:
		b.state = Open
		b.successCount = 0
		b.lastFailureAt = now
	case Open:
		b.lastFailureAt = now
	}
}

// Execute is the only way to call an upstream through this breaker. It
// returns ErrOpen without invoking thunk if the circuit is open and the
// reset timeout has not elapsed; otherwise it runs thunk and records the
// outcome.
func Execute[T any](b *Breaker, thunk func() (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	v, err := thunk()
	if err != nil {
		b.onFailure()
		return zero, err
	}
	b.onSuccess()
	return v, nil
}

// ExecuteWithFallback catches both ErrOpen and upstream errors and runs
// fallback in their place.
func ExecuteWithFallback[T any](b *Breaker, thunk func() (T, error), fallback func() T) T {
	v, err := Execute(b, thunk)
	if err != nil {
		return fallback()
	}
	return v
}

// Reset is the operator escape hatch: force CLOSED and zero all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailureAt = time.Time{}
}

// Stats is the breaker's externally visible state.
type Stats struct {
	Name          string    `json:"name"`
	State         string    `json:"state"`
	FailureCount  int       `json:"failureCount"`
	SuccessCount  int       `json:"successCount"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty"`
}

func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:          b.name,
		State:         b.state.String(),
		FailureCount:  b.failureCount,
		SuccessCount:  b.successCount,
		LastFailureAt: b.lastFailureAt,
	}
}
