package providers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abcde…", truncateRunes("abcdefgh", 5))

	// Multi-byte text is cut on a rune boundary, not a byte offset.
	got := truncateRunes(strings.Repeat("héllo ", 100), 400)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 401, utf8.RuneCountInString(got)) // 400 plus the ellipsis
	assert.True(t, strings.HasSuffix(got, "…"))
}
