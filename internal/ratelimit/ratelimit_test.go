package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Lerner98/TickerHub-sub000/internal/clock"
)

func TestWindowAdmitsUpToMaxRequests(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	w := NewWithClock(2, time.Minute, clk)

	assert.True(t, w.Allow())
	assert.True(t, w.Allow())
	assert.False(t, w.Allow(), "third request within window must be rejected")
}

func TestWindowResetsAfterWindowSize(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	w := NewWithClock(1, time.Minute, clk)

	assert.True(t, w.Allow())
	assert.False(t, w.Allow())

	clk.Advance(time.Minute + time.Second)
	assert.True(t, w.Allow(), "window must reset once windowSize has elapsed")
}

func TestGetStatusReportsRemaining(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	w := NewWithClock(3, time.Minute, clk)
	w.RecordRequest()
	assert.Equal(t, 2, w.GetStatus().RequestsRemaining)
}

func TestGetStatusNeverGoesNegative(t *testing.T) {
	clk := clock.NewFrozen(time.Unix(0, 0))
	w := NewWithClock(1, time.Minute, clk)
	w.RecordRequest()
	w.RecordRequest()
	assert.Equal(t, 0, w.GetStatus().RequestsRemaining)
}

func TestIPLimiterTracksEachIPIndependently(t *testing.T) {
	l := NewIPLimiter(1)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "a different IP must have its own bucket")
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r, _ := http.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", ClientIP(r))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r, _ := http.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", ClientIP(r))
}

func TestIPLimiterStatusReflectsRemainingBeforeConsumption(t *testing.T) {
	l := NewIPLimiter(5)
	status := l.Status("9.9.9.9")
	assert.Equal(t, 5, status.Limit)
	assert.Equal(t, 5, status.Remaining)
	assert.Equal(t, int64(0), status.ResetSecs)
}

func TestIPLimiterStatusDecrementsAfterAllow(t *testing.T) {
	l := NewIPLimiter(2)
	assert.True(t, l.Allow("8.8.8.8"))
	status := l.Status("8.8.8.8")
	assert.Equal(t, 2, status.Limit)
	assert.Less(t, status.Remaining, 2)
}

func TestIPLimiterStatusReportsPositiveResetWhenExhausted(t *testing.T) {
	l := NewIPLimiter(1)
	assert.True(t, l.Allow("7.7.7.7"))
	assert.False(t, l.Allow("7.7.7.7"))
	status := l.Status("7.7.7.7")
	assert.Equal(t, 0, status.Remaining)
	assert.Greater(t, status.ResetSecs, int64(0))
}
