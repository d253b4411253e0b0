package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

var errUpstream = errors.New("upstream failed")

func newTestBreaker(clk clock.Clock) *Breaker {
	return NewWithClock(Config{
		Name: "test", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: time.Minute,
	}, clk)
}

func TestClosedTripsOpenAfterFailureThreshold(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)

	for i := 0; i < 3; i++ {
		_, err := Execute(b, func() (int, error) { return 0, errUpstream })
		require.Error(t, err)
	}
	assert.Equal(t, "open", b.Stats().State)
}

func TestOpenRejectsWithoutCallingThunkBeforeResetTimeout(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}
	require.Equal(t, "open", b.Stats().State)

	called := false
	_, err := Execute(b, func() (int, error) { called = true; return 1, nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "thunk must not run while circuit is open")
}

func TestHalfOpenAfterResetTimeoutAdmitsOneTrial(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}
	clk.Advance(time.Minute + time.Second)

	v, err := Execute(b, func() (int, error) { return 99, nil })
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}
	clk.Advance(time.Minute + time.Second)

	Execute(b, func() (int, error) { return 1, nil })
	Execute(b, func() (int, error) { return 1, nil })

	assert.Equal(t, "closed", b.Stats().State)
	assert.Equal(t, 0, b.Stats().FailureCount)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}
	clk.Advance(time.Minute + time.Second)

	Execute(b, func() (int, error) { return 0, errUpstream })
	assert.Equal(t, "open", b.Stats().State)
}

func TestExecuteWithFallbackUsesFallbackWhenOpen(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}

	v := ExecuteWithFallback(b, func() (int, error) { return 0, errUpstream }, func() int { return -1 })
	assert.Equal(t, -1, v)
}

func TestResetForcesClosed(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	for i := 0; i < 3; i++ {
		Execute(b, func() (int, error) { return 0, errUpstream })
	}
	require.Equal(t, "open", b.Stats().State)

	b.Reset()
	stats := b.Stats()
	assert.Equal(t, "closed", stats.State)
	assert.Equal(t, 0, stats.FailureCount)
}

func TestClosedSuccessResetsFailureCount(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	b := newTestBreaker(clk)
	Execute(b, func() (int, error) { return 0, errUpstream })
	Execute(b, func() (int, error) { return 1, nil })
	assert.Equal(t, 0, b.Stats().FailureCount)
}
