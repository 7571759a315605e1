// Package openai wraps the OpenAI embeddings API as a domain.Embedder.
package openai

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
)

// Config configures the OpenAI embedder.
type Config struct {
	APIKeyEnv string // env var holding the key, default OPENAI_API_KEY
	Model     string // default text-embedding-3-small
	Timeout   time.Duration
}

// Embedder implements domain.Embedder against the OpenAI embeddings API.
type Embedder struct {
	client    *gopenai.Client
	model     string
	dimension int
	timeout   time.Duration
}

// New creates an OpenAI embedder. The dimension is fixed by the model.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	dim := 1536
	if cfg.Model == "text-embedding-3-large" {
		dim = 3072
	}
	return &Embedder{
		client:    gopenai.NewClient(key),
		model:     cfg.Model,
		dimension: dim,
		timeout:   cfg.Timeout,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns a normalized embedding vector for the given text.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, gopenai.EmbeddingRequest{
		Model: gopenai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding data returned", domain.ErrEmbedding)
	}
	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
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
