package output

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateShortInputUnchanged(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello", Truncate("hello", 5))
}

func TestTruncateASCII(t *testing.T) {
	assert.Equal(t, "hel", Truncate("hello", 3))
}

func TestTruncateNeverSplitsRune(t *testing.T) {
	// "é" is two bytes; a byte-index cut at 5 would land mid-sequence.
	s := strings.Repeat("é", 10)
	got := Truncate(s, 5)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 2), got)

	// Four-byte sequences back up as far as needed.
	s = strings.Repeat("😀", 4)
	for max := utf8.UTFMax; max < len(s); max++ {
		got := Truncate(s, max)
		assert.True(t, utf8.ValidString(got), "max=%d", max)
		assert.LessOrEqual(t, len(got), max, "max=%d", max)
	}
}
