package rand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := String(16)
		assert.Len(t, s, 16)
		for _, c := range s {
			assert.True(t, strings.ContainsRune(charset, c))
		}
		seen[s] = true
	}
	assert.Len(t, seen, 100, "ids must not collide in practice")
}
