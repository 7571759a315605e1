package domain

import "errors"

// Sentinel errors for the retrieval pipeline. Callers classify failures with
// errors.Is; wrapping sites add file paths and other detail.
var (
	// ErrNotFound reports a missing or unreadable file or directory.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat reports a file extension outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDimensionMismatch reports an embedding vector whose length disagrees
	// with the dimension established for the collection.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedding reports a failed embedding call. The chunk is excluded
	// from the index; a zero vector is never substituted.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStorage reports a durable read/write failure in the vector store.
	ErrStorage = errors.New("storage failure")

	// ErrValidation reports invalid caller input such as an empty query or a
	// non-positive topK.
	ErrValidation = errors.New("validation failed")
)
