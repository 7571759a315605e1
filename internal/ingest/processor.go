// Package ingest turns source files into indexed chunks: extract text,
// split, attach metadata and deterministic ids, embed, and hand the entries
// to the vector index.
package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/extract"
	"docrag/internal/vectorstore"
)

const defaultWorkers = 4

// Processor drives the ingestion pipeline. Files are independent of each
// other, so a directory batch fans out across a bounded worker group; the
// index is the only shared state and serializes its own writes.
type Processor struct {
	splitter *chunker.Splitter
	embedder domain.Embedder
	index    vectorstore.Index
	workers  int
	logger   *slog.Logger
}

// New creates a Processor. A non-positive workers value falls back to the
// default; a nil logger falls back to slog.Default().
func New(splitter *chunker.Splitter, embedder domain.Embedder, index vectorstore.Index, workers int, logger *slog.Logger) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		splitter: splitter,
		embedder: embedder,
		index:    index,
		workers:  workers,
		logger:   logger,
	}
}

// ProcessFile extracts and splits one file into chunks with full metadata.
// It does not touch the index. Files whose extraction yields no text return
// an empty slice and no error.
func (p *Processor) ProcessFile(path string) ([]domain.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	text, docType, err := extract.File(path)
	if err != nil {
		return nil, err
	}

	pieces := p.splitter.Split(text)
	if len(pieces) == 0 {
		p.logger.Warn("no text extracted", "path", path)
		return nil, nil
	}

	meta := domain.Metadata{
		Source:     path,
		Filename:   filepath.Base(path),
		Extension:  filepath.Ext(path),
		Size:       info.Size(),
		Modified:   float64(info.ModTime().UnixNano()) / 1e9,
		DocType:    docType,
		ChunkCount: len(pieces),
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, content := range pieces {
		m := meta
		m.ChunkIndex = i
		chunks[i] = domain.Chunk{
			ID:      ChunkID(path, i),
			Content: content,
			Meta:    m,
		}
	}
	return chunks, nil
}

// IngestFile processes one file and indexes its chunks, returning the number
// indexed. A chunk whose embedding fails is logged and skipped rather than
// indexed with a degenerate vector; dimension mismatches from the index
// propagate.
func (p *Processor) IngestFile(path string) (int, error) {
	chunks, err := p.ProcessFile(path)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	entries := make([]vectorstore.Entry, 0, len(chunks))
	for _, c := range chunks {
		vec, err := p.embedder.Embed(c.Content)
		if err != nil {
			p.logger.Warn("embedding failed, chunk skipped", "id", c.ID, "path", path, "error", err)
			continue
		}
		entries = append(entries, vectorstore.Entry{
			ID:      c.ID,
			Vector:  vec,
			Content: c.Content,
			Meta:    c.Meta,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := p.index.Add(entries); err != nil {
		return 0, err
	}
	p.logger.Info("file indexed", "path", path, "chunks", len(entries))
	return len(entries), nil
}

// ProcessDirectory walks the directory recursively, ingesting every
// supported file, and returns the total number of chunks indexed. A failure
// in one file is logged and skipped; it never aborts the batch.
func (p *Processor) ProcessDirectory(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("%w: directory %s", domain.ErrNotFound, path)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Warn("walk error, entry skipped", "path", sub, "error", err)
			return nil
		}
		if !d.IsDir() && extract.Supported(sub) {
			files = append(files, sub)
		}
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("%w: walk %s: %v", domain.ErrStorage, path, walkErr)
	}
	p.logger.Info("directory scan complete", "path", path, "files", len(files))

	var total atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for _, file := range files {
		g.Go(func() error {
			n, err := p.IngestFile(file)
			if err != nil {
				// partial-failure semantics: log and move on
				p.logger.Error("file ingestion failed", "path", file, "error", err)
				return nil
			}
			total.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()
	return int(total.Load()), nil
}

// ChunkID derives the stable id for (source path, chunk index). Identical
// inputs always produce the same id, which is what makes re-ingestion an
// overwrite instead of a duplicate.
func ChunkID(path string, index int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", path, index)))
	return hex.EncodeToString(sum[:])
}
