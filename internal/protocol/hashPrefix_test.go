package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPrefixesAreDistinct(t *testing.T) {
	prefixes := [][4]byte{HashPrefixTxSign, HashPrefixTransactionID, HashPrefixSnapshot}
	seen := make(map[[4]byte]bool)
	for _, p := range prefixes {
		assert.False(t, seen[p], "duplicate prefix %q", p[:3])
		assert.Zero(t, p[3])
		seen[p] = true
	}
	assert.Equal(t, [4]byte{'T', 'X', 'N', 0}, HashPrefixTxSign)
}
