// Package retriever orchestrates query answering: embed the query,
// over-fetch nearest neighbors, convert distances to similarities, apply the
// threshold, optionally re-rank, and assemble a bounded context string.
package retriever

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

// Config carries the retrieval defaults used when a surface does not
// override them per call.
type Config struct {
	TopK      int
	Threshold float64
	Rerank    bool
}

// Defaults returns the stock retrieval configuration.
func Defaults() Config {
	return Config{TopK: 5, Threshold: 0.7, Rerank: true}
}

// Retriever reads from a vector index through its query interface only; it
// never mutates stored state.
type Retriever struct {
	index    vectorstore.Index
	embedder domain.Embedder
	cfg      Config
	logger   *slog.Logger
}

func New(index vectorstore.Index, embedder domain.Embedder, cfg Config, logger *slog.Logger) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = Defaults().TopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve returns at most topK chunks whose similarity to the query meets
// the threshold, ranked 1..N. The index is asked for topK*2 candidates so
// the re-ranker has something to work with. A storage failure during search
// degrades to an empty result with a logged warning: retrieval must not
// crash the surrounding conversation flow, and callers treat an empty
// result as "no grounding available".
func (r *Retriever) Retrieve(query string, topK int, threshold float64) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrValidation)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrValidation, topK)
	}

	vec, err := r.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(vec, topK*2)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			r.logger.Warn("search degraded to empty result", "error", err)
			return nil, nil
		}
		return nil, err
	}

	docs := make([]domain.RetrievedChunk, 0, len(hits))
	for i, h := range hits {
		sim := 1.0 / (1.0 + h.Distance)
		if sim < threshold {
			continue
		}
		docs = append(docs, domain.RetrievedChunk{
			Content:    h.Content,
			Meta:       h.Meta,
			Similarity: sim,
			Rank:       i + 1,
		})
	}

	if r.cfg.Rerank && len(docs) > 1 {
		rerank(query, docs)
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}
	for i := range docs {
		docs[i].Rank = i + 1
	}
	return docs, nil
}

// RetrieveBySource retrieves and keeps only chunks whose source path
// contains pattern (case-insensitive). The filter runs over the unfiltered
// topK set, so recall is bounded by it.
func (r *Retriever) RetrieveBySource(query, pattern string, topK int, threshold float64) ([]domain.RetrievedChunk, error) {
	docs, err := r.Retrieve(query, topK, threshold)
	if err != nil {
		return nil, err
	}
	p := strings.ToLower(pattern)
	out := docs[:0]
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Meta.Source), p) {
			out = append(out, d)
		}
	}
	return out, nil
}

// RetrieveByType retrieves and keeps only chunks of the given document type
// (exact, case-insensitive). Same recall bound as RetrieveBySource.
func (r *Retriever) RetrieveByType(query, docType string, topK int, threshold float64) ([]domain.RetrievedChunk, error) {
	docs, err := r.Retrieve(query, topK, threshold)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if strings.EqualFold(d.Meta.DocType, docType) {
			out = append(out, d)
		}
	}
	return out, nil
}

// rerank re-scores candidates with two cheap signals on top of vector
// similarity: query term overlap and document recency. The weights are
// heuristic and tunable, not a correctness guarantee; they are kept as-is
// for reproducible ordering. The sort is stable so equal scores preserve
// their original relative order.
func rerank(query string, docs []domain.RetrievedChunk) {
	qset := termSet(query)
	for i := range docs {
		termBoost := 0.0
		if len(qset) > 0 {
			matched := 0
			for term := range termSet(docs[i].Content) {
				if _, ok := qset[term]; ok {
					matched++
				}
			}
			termBoost = float64(matched) / float64(len(qset))
		}
		recencyBoost := math.Min(0.1, docs[i].Meta.Modified/1e12)
		docs[i].Similarity += termBoost*0.1 + recencyBoost
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Similarity > docs[j].Similarity })
}

func termSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
