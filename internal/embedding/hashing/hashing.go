// Package hashing provides a local, dependency-free embedder based on the
// hashing trick: tokens are bucketed by hash into a fixed-dimension vector
// of term counts, then L2-normalized. It is deterministic, needs no corpus
// preparation and no network, which makes it the default for offline use and
// for tests. It captures lexical overlap only, not semantics.
package hashing

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"docrag/internal/domain"
)

const DefaultDimension = 256

// Embedder implements domain.Embedder with a fixed output dimension.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

// New creates a hashing embedder. A non-positive dimension falls back to
// DefaultDimension.
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed maps text to a normalized term-count vector. Text with no tokens at
// all produces an error rather than a zero vector, since a zero vector is a
// specific point in the space, not "no information".
func (e *Embedder) Embed(text string) ([]float64, error) {
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens in text", domain.ErrEmbedding)
	}
	vec := make([]float64, e.dimension)
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		vec[h.Sum64()%uint64(e.dimension)]++
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
