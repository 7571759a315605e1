// Package ollama implements a domain.Embedder against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"docrag/internal/domain"
)

// Config configures the Ollama embedder.
type Config struct {
	URL     string // e.g. http://localhost:11434/api/embeddings
	Model   string // e.g. nomic-embed-text
	Timeout time.Duration
}

// Embedder calls the Ollama embeddings endpoint. The output dimension is
// learned from the first successful call and enforced afterwards, since the
// server does not advertise it up front. Embed is safe for concurrent use;
// the mutex serializes the learn-and-check of the dimension.
type Embedder struct {
	url     string
	model   string
	client  *http.Client
	timeout time.Duration

	mu        sync.Mutex
	dimension int
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func New(cfg Config) *Embedder {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434/api/embeddings"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Embedder{
		url:     cfg.URL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "ollama" }

// Dimension returns the dimensionality of the produced embedding vectors, or
// 0 before the first successful Embed call.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed returns a normalized embedding vector for the given text.
func (e *Embedder) Embed(text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbedding, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama status %d: %s", domain.ErrEmbedding, resp.StatusCode, msg)
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbedding, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", domain.ErrEmbedding)
	}
	e.mu.Lock()
	if e.dimension == 0 {
		e.dimension = len(out.Embedding)
	} else if len(out.Embedding) != e.dimension {
		want := e.dimension
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(out.Embedding), want)
	}
	e.mu.Unlock()

	normalize(out.Embedding)
	return out.Embedding, nil
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
