package sequence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSequence(t *testing.T) {
	assert.Equal(t, "BK-000042", FormatSequence("BK", 42))
	assert.Equal(t, "BK-1234567", FormatSequence("BK", 1234567))
}

func TestRandomNumberer_Format(t *testing.T) {
	n := NewRandomNumberer("BK")
	n.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	got, err := n.Next(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BK-240501-[0-9A-F]{4}$`), got)
}

func TestRandomNumberer_Varies(t *testing.T) {
	n := NewRandomNumberer("BK")
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		got, err := n.Next(context.Background())
		require.NoError(t, err)
		seen[got] = true
	}
	assert.Greater(t, len(seen), 1)
}
