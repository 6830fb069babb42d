package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := newCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)

		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = struct{}{}
	}

	// 32^8 codes; 100 draws colliding would mean a broken generator.
	assert.Len(t, seen, 100)
}
