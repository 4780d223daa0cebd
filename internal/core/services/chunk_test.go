package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, SplitText("", 100))
	assert.Nil(t, SplitText("   \n \t ", 100)) // all-whitespace chunks are dropped
}

func TestSplitText_SingleSmallChunk(t *testing.T) {
	chunks := SplitText("short text", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitText_CutsAtNewline(t *testing.T) {
	// Three 45-char lines. With a 50-char window the newline at offset
	// 45 sits past the 40-char minimum, so each line becomes one chunk.
	lines := []string{
		strings.Repeat("a", 45),
		strings.Repeat("b", 45),
		strings.Repeat("c", 45),
	}
	chunks := SplitText(strings.Join(lines, "\n"), 50)
	require.Equal(t, lines, chunks)
}

func TestSplitText_IgnoresEarlyNewline(t *testing.T) {
	// The only newline sits at offset 10, inside the minimum-advance
	// zone, so the cut stays at the window edge.
	text := strings.Repeat("x", 10) + "\n" + strings.Repeat("y", 100)
	chunks := SplitText(text, 60)
	require.Len(t, chunks, 2)
	assert.Equal(t, 60, len(chunks[0]))
}

func TestSplitText_Boundedness(t *testing.T) {
	text := strings.Repeat("word ", 500) // no newlines at all
	for _, maxChars := range []int{1, 7, 40, 100, 3000} {
		for _, chunk := range SplitText(text, maxChars) {
			assert.LessOrEqual(t, len(chunk), maxChars)
		}
	}
}

func TestSplitText_Coverage(t *testing.T) {
	// Concatenating chunks and removing whitespace reconstructs the
	// input with no character loss beyond trimmed runs at cut points.
	text := "Chapter 1\n" + strings.Repeat("alpha beta gamma delta.\n", 30) + "Chapter 2\n" + strings.Repeat("epsilon zeta.\n", 20)
	chunks := SplitText(text, 120)

	strip := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	assert.Equal(t, strip(text), strip(strings.Join(chunks, "")))
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("some repeated study material\n", 50)
	first := SplitText(text, 200)
	second := SplitText(text, 200)
	assert.Equal(t, first, second)
}

func TestSplitText_Terminates(t *testing.T) {
	text := strings.Repeat("\n", 100) + strings.Repeat("z", 100)
	chunks := SplitText(text, 1)
	// One chunk per remaining character at the degenerate window size.
	assert.Len(t, chunks, 100)
}
