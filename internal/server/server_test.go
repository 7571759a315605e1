package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/api"
	"docrag/internal/chunker"
	"docrag/internal/embedding/hashing"
	"docrag/internal/ingest"
	"docrag/internal/retriever"
	"docrag/internal/vectorstore/memory"
)

func newTestServer(t *testing.T) (*Server, *ingest.Processor) {
	t.Helper()
	store := memory.New()
	emb := hashing.New(64)
	splitter, err := chunker.NewSplitter(200, 40)
	require.NoError(t, err)
	proc := ingest.New(splitter, emb, store, 2, nil)
	retr := retriever.New(store, emb, retriever.Config{TopK: 5, Threshold: 0.1, Rerank: true}, nil)
	handler := api.NewHandler(retr, proc, api.Config{
		TopK:            5,
		Threshold:       0.1,
		MaxContextChars: 4000,
		UploadDir:       t.TempDir(),
	}, nil)
	return New(":0", handler, nil), proc
}

func postJSON(t *testing.T, srv *Server, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealthy(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, "/check/healthy", nil)
	require.NoError(t, err)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	srv, proc := newTestServer(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("alpha sentence. ", 40)), 0o644))
	_, err := proc.IngestFile(path)
	require.NoError(t, err)

	resp := postJSON(t, srv, "/api/v1/search", `{"query": "alpha sentence"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query   string `json:"query"`
		Count   int    `json:"count"`
		Results []struct {
			Content    string  `json:"content"`
			Similarity float64 `json:"similarity"`
			Rank       int     `json:"rank"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alpha sentence", body.Query)
	require.Greater(t, body.Count, 0)
	assert.Contains(t, body.Results[0].Content, "alpha")
	assert.Equal(t, 1, body.Results[0].Rank)
}

func TestSearchValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/v1/search", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, srv, "/api/v1/search", `{"query": "q", "top_k": -1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, srv, "/api/v1/search", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContextEndpoint(t *testing.T) {
	srv, proc := newTestServer(t)

	path := filepath.Join(t.TempDir(), "guide.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("useful guidance. ", 40)), 0o644))
	_, err := proc.IngestFile(path)
	require.NoError(t, err)

	resp := postJSON(t, srv, "/api/v1/context", `{"query": "useful guidance", "max_chars": 500}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Context string `json:"context"`
		Chars   int    `json:"chars"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Context, "[Source: guide.txt]")
	assert.LessOrEqual(t, body.Chars, 500)
}

func TestIngestEndpointNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/v1/ingest", `{"path": "/does/not/exist"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	require.NoError(t, err)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Documents int    `json:"documents"`
		Embedder  string `json:"embedder"`
		Dimension int    `json:"dimension"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Zero(t, stats.Documents)
	assert.Equal(t, "hashing", stats.Embedder)
	assert.Equal(t, 64, stats.Dimension)
}
