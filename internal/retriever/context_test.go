package retriever

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
	"docrag/internal/vectorstore/memory"
)

func contextFixture(t *testing.T) *Retriever {
	t.Helper()
	// each block renders as "[Source: x.txt]\n" (16 chars) + content + "\n"
	store := seedStore(t,
		vectorstore.Entry{
			ID: "a", Vector: []float64{1, 0, 0},
			Content: strings.Repeat("a", 50),
			Meta:    domain.Metadata{Filename: "a.txt"},
		},
		vectorstore.Entry{
			ID: "b", Vector: []float64{0.9, 0.1, 0},
			Content: strings.Repeat("b", 50),
			Meta:    domain.Metadata{Filename: "b.txt"},
		},
	)
	emb := &fakeEmbedder{vectors: map[string][]float64{"q": {1, 0, 0}}}
	return New(store, emb, Config{TopK: 5, Threshold: 0.1, Rerank: false}, nil)
}

func TestContextJoinsBlocksWithinBudget(t *testing.T) {
	r := contextFixture(t)

	out, err := r.Context("q", 200)
	require.NoError(t, err)
	assert.Contains(t, out, "[Source: a.txt]")
	assert.Contains(t, out, "[Source: b.txt]")
	assert.Contains(t, out, "\n---\n")
	assert.Equal(t, 67+5+67, len(out))
	assert.LessOrEqual(t, len(out), 200)
}

func TestContextSkipsBlockWhenRemainderTooSmall(t *testing.T) {
	r := contextFixture(t)

	// the second block needs 72 chars with its separator but only 48 remain,
	// below the fragment minimum, so assembly stops after the first block
	out, err := r.Context("q", 120)
	require.NoError(t, err)
	assert.Contains(t, out, "[Source: a.txt]")
	assert.NotContains(t, out, "b.txt")
	assert.NotContains(t, out, "...")
	assert.Equal(t, 67, len(out))
}

func TestContextTruncatesWithEllipsis(t *testing.T) {
	store := seedStore(t, vectorstore.Entry{
		ID: "big", Vector: []float64{1, 0, 0},
		Content: strings.Repeat("x", 500),
		Meta:    domain.Metadata{Filename: "big.txt"},
	})
	emb := &fakeEmbedder{vectors: map[string][]float64{"q": {1, 0, 0}}}
	r := New(store, emb, Config{TopK: 5, Threshold: 0.1, Rerank: false}, nil)

	out, err := r.Context("q", 200)
	require.NoError(t, err)
	assert.Equal(t, 200, len(out))
	assert.True(t, strings.HasPrefix(out, "[Source: big.txt]\n"))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestContextTruncationKeepsValidUTF8(t *testing.T) {
	store := seedStore(t, vectorstore.Entry{
		ID: "multi", Vector: []float64{1, 0, 0},
		Content: strings.Repeat("héllo wörld ", 40),
		Meta:    domain.Metadata{Filename: "multi.txt"},
	})
	emb := &fakeEmbedder{vectors: map[string][]float64{"q": {1, 0, 0}}}
	r := New(store, emb, Config{TopK: 5, Threshold: 0.1, Rerank: false}, nil)

	for maxChars := 150; maxChars <= 260; maxChars++ {
		out, err := r.Context("q", maxChars)
		require.NoError(t, err, "maxChars %d", maxChars)
		assert.LessOrEqual(t, len(out), maxChars, "maxChars %d", maxChars)
		assert.True(t, utf8.ValidString(out), "maxChars %d cut mid-rune: %q", maxChars, out)
		assert.True(t, strings.HasSuffix(out, "..."), "maxChars %d", maxChars)
	}
}

func TestContextFallbackSourceLabel(t *testing.T) {
	store := seedStore(t, vectorstore.Entry{
		ID: "anon", Vector: []float64{1, 0, 0},
		Content: "no metadata here",
	})
	emb := &fakeEmbedder{vectors: map[string][]float64{"q": {1, 0, 0}}}
	r := New(store, emb, Config{TopK: 5, Threshold: 0.1, Rerank: false}, nil)

	out, err := r.Context("q", 200)
	require.NoError(t, err)
	assert.Contains(t, out, "[Source: Document 1]")
}

func TestContextValidationAndEmpty(t *testing.T) {
	r := contextFixture(t)

	_, err := r.Context("q", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err := r.Context("q", 200)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	empty := New(memory.New(), &fakeEmbedder{vectors: map[string][]float64{"q": {1, 0, 0}}}, Defaults(), nil)
	out, err = empty.Context("q", 200)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStats(t *testing.T) {
	r := contextFixture(t)

	stats, err := r.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 5, stats.TopK)
	assert.InDelta(t, 0.1, stats.Threshold, 1e-9)
	assert.False(t, stats.Rerank)
	assert.Equal(t, "fake", stats.Embedder)
	assert.Equal(t, 3, stats.Dimension)
}
