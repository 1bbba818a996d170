package certificate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

func TestDeriveAddress_Deterministic(t *testing.T) {
	for _, id := range []int{1, 2, 42, 999999} {
		first := DeriveAddress(id)
		second := DeriveAddress(id)
		assert.Equal(t, first, second, "address for id %d must be stable", id)
	}
}

func TestDeriveAddress_WellFormed(t *testing.T) {
	for _, id := range []int{0, 1, 2, 999999} {
		addr := DeriveAddress(id)
		require.Regexp(t, addressPattern, addr)
	}
}

func TestDeriveAddress_DistinctInputs(t *testing.T) {
	ids := []int{1, 2, 999999}
	seen := make(map[string]int, len(ids))
	for _, id := range ids {
		addr := DeriveAddress(id)
		prev, dup := seen[addr]
		require.False(t, dup, "ids %d and %d derived the same address", prev, id)
		seen[addr] = id
	}
}
