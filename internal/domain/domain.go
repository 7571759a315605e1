package domain

// Metadata describes the provenance of a chunk. Fields mirror what the
// ingestion pipeline can observe about a source file; zero values mean
// "unknown" for optional fields.
type Metadata struct {
	Source     string  `json:"source"`
	Filename   string  `json:"filename"`
	Extension  string  `json:"extension"`
	Size       int64   `json:"size"`
	Modified   float64 `json:"modified"` // unix seconds, fractional
	DocType    string  `json:"doc_type"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkCount int     `json:"chunk_count"`
}

// Chunk is a bounded, possibly overlapping piece of a source document, the
// unit of embedding and retrieval. ID is derived from (source path, chunk
// index) so re-ingesting the same file overwrites rather than duplicates.
type Chunk struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
}

// RetrievedChunk is a chunk returned for a query, with its similarity score
// in (0, 1] and its 1-based rank in the final ordering. Produced per query,
// never persisted.
type RetrievedChunk struct {
	Content    string   `json:"content"`
	Meta       Metadata `json:"metadata"`
	Similarity float64  `json:"similarity"`
	Rank       int      `json:"rank"`
}

// Embedder converts free text into a fixed-dimension vector representation.
// Implementations must be deterministic for identical input within a process
// lifetime and keep one output dimension per instance.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(text string) ([]float64, error)
}
