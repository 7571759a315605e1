package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	Type       string `yaml:"type"`       // "bolt" or "memory"
	Root       string `yaml:"root"`       // storage root for durable collections
	Collection string `yaml:"collection"` // collection name
}

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"` // "hashing", "openai" or "ollama"
	Dimension int                   `yaml:"dimension,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// RetrieverConfig configures retrieval defaults.
type RetrieverConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	Rerank              *bool   `yaml:"rerank,omitempty"`
	MaxContextChars     int     `yaml:"max_context_chars"`
}

// IngestConfig configures directory ingestion.
type IngestConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	UploadDir string `yaml:"upload_dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Server    ServerConfig    `yaml:"server"`
}

// RerankEnabled resolves the optional rerank flag, defaulting to on.
func (c RetrieverConfig) RerankEnabled() bool {
	return c.Rerank == nil || *c.Rerank
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Storage:   StorageConfig{Type: "bolt", Root: "data/collections", Collection: "documents"},
		Chunker:   ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Embedder:  EmbedderConfig{Type: "hashing"},
		Retriever: RetrieverConfig{TopK: 5, SimilarityThreshold: 0.7, MaxContextChars: 4000},
		Ingest:    IngestConfig{Workers: 4},
		Server:    ServerConfig{Addr: ":8080", UploadDir: "data/uploads"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "bolt"
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "data/collections"
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = "documents"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.Retriever.SimilarityThreshold == 0 {
		cfg.Retriever.SimilarityThreshold = 0.7
	}
	if cfg.Retriever.MaxContextChars == 0 {
		cfg.Retriever.MaxContextChars = 4000
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "data/uploads"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "ollama" && cfg.Embedder.Ollama != nil {
		if cfg.Embedder.Ollama.URL == "" {
			cfg.Embedder.Ollama.URL = "http://localhost:11434/api/embeddings"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
}
