package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.Storage.Type)
	assert.Equal(t, "data/collections", cfg.Storage.Root)
	assert.Equal(t, "documents", cfg.Storage.Collection)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 5, cfg.Retriever.TopK)
	assert.InDelta(t, 0.7, cfg.Retriever.SimilarityThreshold, 1e-9)
	assert.Equal(t, 4000, cfg.Retriever.MaxContextChars)
	assert.True(t, cfg.Retriever.RerankEnabled())
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  collection: papers
retriever:
  top_k: 3
  rerank: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "papers", cfg.Storage.Collection)
	assert.Equal(t, "bolt", cfg.Storage.Type, "unset fields fall back")
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 3, cfg.Retriever.TopK)
	assert.False(t, cfg.Retriever.RerankEnabled())
	assert.InDelta(t, 0.7, cfg.Retriever.SimilarityThreshold, 1e-9)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
}

func TestLoadEmbedderDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: openai
  openai:
    model: ""
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, 30, cfg.Embedder.OpenAI.TimeoutSecs)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [not: a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deep", "nested", "config.yaml")

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Storage.Collection = "roundtrip"
	cfg.Retriever.TopK = 9

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", loaded.Storage.Collection)
	assert.Equal(t, 9, loaded.Retriever.TopK)
	assert.Equal(t, cfg.Chunker, loaded.Chunker)
}
