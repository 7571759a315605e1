package retriever

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docrag/internal/domain"
)

const (
	blockSeparator = "\n---\n"
	// a truncated fragment below this size carries too little signal to be
	// worth the prompt space
	minFragmentChars = 100
	ellipsis         = "..."
)

// Context retrieves for the query with the configured defaults and
// concatenates "[Source: <filename>]" blocks until the character budget is
// reached. The separator lines count against the budget and the returned
// string never exceeds maxChars. If the next block does not fit whole but
// more than minFragmentChars of budget remain, an ellipsis-terminated
// fragment of it is appended and assembly stops.
func (r *Retriever) Context(query string, maxChars int) (string, error) {
	if maxChars <= 0 {
		return "", fmt.Errorf("%w: maxChars must be positive, got %d", domain.ErrValidation, maxChars)
	}
	docs, err := r.Retrieve(query, r.cfg.TopK, r.cfg.Threshold)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}

	var parts []string
	total := 0
	for i, doc := range docs {
		source := doc.Meta.Filename
		if source == "" {
			source = fmt.Sprintf("Document %d", i+1)
		}
		block := fmt.Sprintf("[Source: %s]\n%s\n", source, doc.Content)

		need := len(block)
		if len(parts) > 0 {
			need += len(blockSeparator)
		}
		if total+need > maxChars {
			remaining := maxChars - total
			if len(parts) > 0 {
				remaining -= len(blockSeparator)
			}
			if remaining > minFragmentChars {
				cut := remaining - len(ellipsis)
				// back off to a rune boundary so the fragment stays valid UTF-8
				for cut > 0 && !utf8.RuneStart(block[cut]) {
					cut--
				}
				parts = append(parts, block[:cut]+ellipsis)
			}
			break
		}
		parts = append(parts, block)
		total += need
	}

	context := strings.Join(parts, blockSeparator)
	r.logger.Info("context assembled", "chars", len(context), "blocks", len(parts))
	return context, nil
}

// Stats summarizes the retriever's configuration and the size of the
// collection behind it.
type Stats struct {
	Documents int     `json:"documents"`
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"similarity_threshold"`
	Rerank    bool    `json:"rerank_enabled"`
	Embedder  string  `json:"embedder"`
	Dimension int     `json:"dimension"`
}

// Stats reports the collection size and the active retrieval settings.
func (r *Retriever) Stats() (Stats, error) {
	count, err := r.index.Count()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Documents: count,
		TopK:      r.cfg.TopK,
		Threshold: r.cfg.Threshold,
		Rerank:    r.cfg.Rerank,
		Embedder:  r.embedder.Name(),
		Dimension: r.embedder.Dimension(),
	}, nil
}
