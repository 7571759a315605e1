package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestNewSplitterValidation(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{"valid", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero chunk size", 0, 0, true},
		{"negative chunk size", -5, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals chunk size", 100, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.chunkSize, tt.overlap)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSplitShortText(t *testing.T) {
	s, err := NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks := s.Split("  a short document  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitWindowsAndOverlap(t *testing.T) {
	// 2400 characters with no boundary markers: raw window cuts only
	text := strings.Repeat("abcdefghij", 240)
	s, err := NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)

	assert.Equal(t, text[0:1000], chunks[0])
	assert.Equal(t, text[800:1800], chunks[1])
	assert.Equal(t, text[1600:2400], chunks[2])

	// consecutive chunks share exactly the overlap of raw source text
	assert.Equal(t, chunks[0][len(chunks[0])-200:], chunks[1][:200])
	assert.Equal(t, chunks[1][len(chunks[1])-200:], chunks[2][:200])

	for i, c := range chunks[:2] {
		assert.Len(t, c, 1000, "chunk %d", i)
	}
	assert.Len(t, chunks[2], 800)
}

func TestSplitCutsOnSentenceBoundary(t *testing.T) {
	sentence := strings.Repeat("x", 70) + ". "
	text := sentence + strings.Repeat("y", 100)
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	// boundary at offset 70 is past half the window, so the first chunk
	// ends after the sentence instead of at the raw 100-rune cut
	assert.Equal(t, strings.Repeat("x", 70)+".", chunks[0])
}

func TestSplitIgnoresEarlyBoundary(t *testing.T) {
	// boundary in the first half of the window must not shorten the chunk
	text := strings.Repeat("x", 20) + ". " + strings.Repeat("y", 200)
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 100)
}

func TestSplitLargeOverlapAfterBoundary(t *testing.T) {
	// when the boundary backtrack pulls the cut closer to the window start
	// than the overlap reaches, the scan must still advance instead of
	// walking backwards or stalling
	text := strings.Repeat("x", 55) + ". " + strings.Repeat("y", 300)
	for _, overlap := range []int{57, 60} {
		s, err := NewSplitter(100, overlap)
		require.NoError(t, err)

		chunks := s.Split(text)
		require.NotEmpty(t, chunks, "overlap %d", overlap)
		assert.Equal(t, strings.Repeat("x", 55)+".", chunks[0], "overlap %d", overlap)
		// every rune of the source survives in some chunk
		joined := strings.Join(chunks, "")
		assert.Contains(t, joined, strings.Repeat("y", 300), "overlap %d", overlap)
		assert.LessOrEqual(t, len(chunks), 10, "overlap %d", overlap)
	}
}

func TestSplitMultibyteSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 50) // 600 runes, multibyte
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk cut mid-rune: %q", c)
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
}
