package output

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortInputSingleChunk(t *testing.T) {
	chunks := Chunk("hello world", 60)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 60))
	assert.Nil(t, Chunk("   \n  ", 60))
}

func TestChunkPrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("A", 50) + "\n\n" + strings.Repeat("B", 50)

	chunks := Chunk(text, 60)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("A", 50), chunks[0])
	assert.Equal(t, strings.Repeat("B", 50), chunks[1])
}

func TestChunkFallsBackToLineBreak(t *testing.T) {
	// Paragraph break too early (before half the limit), line break later.
	text := strings.Repeat("A", 10) + "\n\n" + strings.Repeat("B", 30) + "\n" + strings.Repeat("C", 30)

	chunks := Chunk(text, 60)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("A", 10)+"\n\n"+strings.Repeat("B", 30), chunks[0])
	assert.Equal(t, strings.Repeat("C", 30), chunks[1])
}

func TestChunkFallsBackToSpace(t *testing.T) {
	words := strings.Repeat("word ", 30) // 150 chars
	chunks := Chunk(words, 60)

	require.True(t, len(chunks) > 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 60)
		assert.NotContains(t, chunk, "  ")
	}
}

func TestChunkHardCutWithoutBreakpoints(t *testing.T) {
	text := strings.Repeat("x", 150)

	chunks := Chunk(text, 60)

	require.Len(t, chunks, 3)
	assert.Equal(t, 60, len(chunks[0]))
	assert.Equal(t, 60, len(chunks[1]))
	assert.Equal(t, 30, len(chunks[2]))
}

func TestChunkBoundsAndNonEmpty(t *testing.T) {
	inputs := []string{
		strings.Repeat("paragraph one.\n\n", 40),
		strings.Repeat("line\n", 100),
		strings.Repeat("a b c d e f g ", 50),
		strings.Repeat("z", 500),
	}

	for _, input := range inputs {
		chunks := Chunk(input, 64)
		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 64)
			assert.NotEmpty(t, chunk)
		}
	}
}

func TestChunkConcatenationReproducesInput(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 20)

	chunks := Chunk(text, 50)

	squash := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	assert.Equal(t, squash(text), squash(strings.Join(chunks, " ")))
}

func TestChunkHardCutKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 40) // no whitespace, two bytes per rune

	chunks := Chunk(text, 25)

	var rebuilt strings.Builder
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, len(c), 25)
		rebuilt.WriteString(c)
	}
	assert.Equal(t, text, rebuilt.String())
}
