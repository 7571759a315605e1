package vectorstore

import "docrag/internal/domain"

// Entry is one indexed record: a chunk's id, vector, text and metadata. The
// store owns persisted entries exclusively; Add upserts by ID.
type Entry struct {
	ID      string          `json:"id"`
	Vector  []float64       `json:"vector"`
	Content string          `json:"content"`
	Meta    domain.Metadata `json:"metadata"`
}

// Hit is one nearest-neighbor search result. Distance is the store's native
// metric (L2); converting it to a similarity and thresholding is the
// caller's concern, keeping the store a pure nearest-neighbor primitive.
type Hit struct {
	ID       string
	Content  string
	Meta     domain.Metadata
	Distance float64
}

// Index stores chunk vectors durably and supports nearest-neighbor search.
// The first Add on an empty collection establishes the vector dimension;
// later calls with a different dimension fail with
// domain.ErrDimensionMismatch. Writes are serialized per collection; Search
// and Count may run concurrently and never observe a partially applied
// write.
type Index interface {
	Add(entries []Entry) error
	Search(vector []float64, topK int) ([]Hit, error)
	Delete(ids []string) error
	Clear() error
	Count() (int, error)
}
