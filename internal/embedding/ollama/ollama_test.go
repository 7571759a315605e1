package ollama

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

// stubServer answers the embeddings endpoint with a vector whose length
// depends on the prompt, so tests can force dimension changes.
func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		dim := 3
		if req.Prompt == "wider" {
			dim = 4
		}
		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = float64(i + 1)
		}
		require.NoError(t, json.NewEncoder(w).Encode(embeddingResponse{Embedding: vec}))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedLearnsAndEnforcesDimension(t *testing.T) {
	e := New(Config{URL: stubServer(t).URL, Model: "test"})
	assert.Zero(t, e.Dimension())

	vec, err := e.Embed("hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 3, e.Dimension())

	_, err = e.Embed("wider")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 3, e.Dimension())
}

func TestEmbedConcurrent(t *testing.T) {
	// directory ingestion fans embeds out over a worker pool, so the
	// first-use dimension learning must hold up under concurrent calls
	e := New(Config{URL: stubServer(t).URL, Model: "test"})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := e.Embed("hello")
			if err == nil && len(vec) != 3 {
				t.Errorf("got %d-dim vector, want 3", len(vec))
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, 3, e.Dimension())
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	e := New(Config{URL: srv.URL, Model: "test"})
	_, err := e.Embed("hello")
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}
