package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectChain(t *testing.T) {
	assert.Equal(t, "ethereum", DetectChain("0xabc123"))
	assert.Equal(t, "bitcoin", DetectChain("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
}

func TestValidEthAddress(t *testing.T) {
	assert.True(t, ValidEthAddress("0x"+repeat("a", 40)))
	assert.False(t, ValidEthAddress("0x"+repeat("a", 39)))
	assert.False(t, ValidEthAddress("not-an-address"))
}

func TestValidBtcAddress(t *testing.T) {
	assert.True(t, ValidBtcAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	assert.True(t, ValidBtcAddress("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"))
	assert.False(t, ValidBtcAddress("0xabc123"))
}

func TestValidTxHash(t *testing.T) {
	hash64 := repeat("a", 64)
	assert.True(t, ValidTxHash(hash64))
	assert.True(t, ValidTxHash("0x"+hash64))
	assert.False(t, ValidTxHash("short"))
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
