package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRejectsHostNotInAllowlist(t *testing.T) {
	f := New([]string{"api.coingecko.com"}, false)
	_, err := f.FetchWithTimeout(context.Background(), "http://evil.example.com/x", nil, time.Second)

	var apiErr *ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Status)
}

func TestFetchRejectsLoopbackEvenIfAllowlisted(t *testing.T) {
	f := New([]string{"localhost"}, false)
	_, err := f.FetchWithTimeout(context.Background(), "http://localhost/x", nil, time.Second)

	var apiErr *ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "private/loopback")
}

func TestFetchRejectsPrivateRangeEvenIfAllowlisted(t *testing.T) {
	f := New([]string{"192.168.1.10"}, false)
	_, err := f.FetchWithTimeout(context.Background(), "http://192.168.1.10/x", nil, time.Second)

	var apiErr *ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "private/loopback")
}

func TestFetchRequiresHTTPSInProduction(t *testing.T) {
	f := New([]string{"api.coingecko.com"}, true)
	_, err := f.FetchWithTimeout(context.Background(), "http://api.coingecko.com/x", nil, time.Second)

	var apiErr *ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "https required")
}

func TestFetchAllowsHTTPSInProductionForAllowlistedHost(t *testing.T) {
	f := New([]string{"api.coingecko.com"}, true)
	_, err := f.validate("https://api.coingecko.com/x")
	assert.NoError(t, err)
}

func TestAllowlistIsCaseInsensitive(t *testing.T) {
	f := New([]string{"API.CoinGecko.com"}, false)
	_, err := f.validate("https://api.coingecko.com/x")
	assert.NoError(t, err)
}

func TestSafeFetchSwallowsErrors(t *testing.T) {
	f := New([]string{"api.coingecko.com"}, false)
	v, ok := SafeFetch[map[string]interface{}](context.Background(), f, "http://not-allowlisted.example.com/x", time.Second)
	assert.False(t, ok)
	assert.Nil(t, v)
}
