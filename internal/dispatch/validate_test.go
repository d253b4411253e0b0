package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidChain(t *testing.T) {
	assert.True(t, validChain("bitcoin"))
	assert.True(t, validChain("Ethereum"))
	assert.False(t, validChain("dogecoin"))
}

func TestValidBlockNumber(t *testing.T) {
	assert.True(t, validBlockNumber("0"))
	assert.True(t, validBlockNumber("12345"))
	assert.False(t, validBlockNumber("007"))
	assert.False(t, validBlockNumber("-1"))
	assert.False(t, validBlockNumber("abc"))
}

func TestParseLimitRejectsOutOfBounds(t *testing.T) {
	n, ok := parseLimit("10")
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = parseLimit("0")
	assert.False(t, ok)
	_, ok = parseLimit("101")
	assert.False(t, ok)
	_, ok = parseLimit("not-a-number")
	assert.False(t, ok)
}

func TestParsePageRequiresPositive(t *testing.T) {
	n, ok := parsePage("1")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = parsePage("0")
	assert.False(t, ok)
	_, ok = parsePage("-5")
	assert.False(t, ok)
}

func TestValidMoverKind(t *testing.T) {
	assert.True(t, validMoverKind("gainers"))
	assert.True(t, validMoverKind("losers"))
	assert.True(t, validMoverKind("actives"))
	assert.False(t, validMoverKind("whales"))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH"}, splitCSV("BTC, ETH"))
	assert.Nil(t, splitCSV(""))
}
