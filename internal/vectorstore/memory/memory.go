// Package memory provides an in-process vectorstore.Index for ephemeral
// runs and tests. It honors the same dimension and upsert semantics as the
// durable store but keeps nothing across restarts.
package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

// Store is a brute-force in-memory vector index guarded by an RWMutex:
// writes are exclusive, searches share the read lock.
type Store struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]vectorstore.Entry
}

func New() *Store {
	return &Store{entries: make(map[string]vectorstore.Entry)}
}

// Add upserts entries by id, establishing the dimension on first use.
func (s *Store) Add(entries []vectorstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(entries[0].Vector)
		if dim == 0 {
			return fmt.Errorf("%w: empty vector for id %s", domain.ErrDimensionMismatch, entries[0].ID)
		}
	}
	for _, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: id %s has dimension %d, collection has %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Vector), dim)
		}
	}
	s.dimension = dim
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

// Search returns up to topK entries ordered by ascending L2 distance.
func (s *Store) Search(vector []float64, topK int) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrValidation, topK)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, collection has %d",
			domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	hits := make([]vectorstore.Hit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, vectorstore.Hit{
			ID:       e.ID,
			Content:  e.Content,
			Meta:     e.Meta,
			Distance: l2(vector, e.Vector),
		})
	}
	// map iteration is unordered; tie-break on id to keep results stable
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes entries by id. Unknown ids are ignored.
func (s *Store) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// Clear drops all entries and resets the dimension.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]vectorstore.Entry)
	s.dimension = 0
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func l2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
