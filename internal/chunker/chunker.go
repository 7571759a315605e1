package chunker

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// boundaries are tried in order; the first one whose last occurrence falls in
// the second half of the window wins. Each marker is two runes long.
var boundaries = []string{". ", ".\n", "!\n", "?\n"}

// Splitter cuts raw text into overlapping windows, preferring to end a chunk
// on a sentence boundary. Offsets are rune-based so multi-byte text is never
// cut mid-character.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter validates the window parameters. Overlap must be smaller than
// the chunk size or scanning would never advance.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrValidation, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrValidation, chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the ordered chunks of text. Consecutive chunks share exactly
// the configured overlap of raw source runes, except where a boundary
// adjustment moved the cut and in the final, possibly shorter, chunk. Every
// chunk is trimmed of surrounding whitespace; chunks that trim to nothing
// are dropped.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		window := runes[start:end]
		for _, marker := range boundaries {
			idx := lastMarker(window, marker)
			if idx >= 0 && float64(idx) >= float64(s.chunkSize)*0.5 {
				end = start + idx + len([]rune(marker))
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		// a boundary backtrack can pull end so far back that end-overlap
		// would not advance; drop the overlap for that step so the scan
		// always makes progress
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	out := chunks[:0]
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// lastMarker returns the rune offset of the last occurrence of a two-rune
// marker in window, or -1.
func lastMarker(window []rune, marker string) int {
	m := []rune(marker)
	for i := len(window) - len(m); i >= 0; i-- {
		if window[i] == m[0] && window[i+1] == m[1] {
			return i
		}
	}
	return -1
}
