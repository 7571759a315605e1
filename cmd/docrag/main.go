package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docrag/internal/api"
	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding/hashing"
	"docrag/internal/embedding/ollama"
	"docrag/internal/embedding/openai"
	"docrag/internal/ingest"
	"docrag/internal/retriever"
	"docrag/internal/server"
	"docrag/internal/tui"
	"docrag/internal/vectorstore"
	"docrag/internal/vectorstore/bolt"
	"docrag/internal/vectorstore/memory"
)

const usage = `Usage: docrag [--config=config.yaml] <command> [args]

Commands:
  ingest <path>...   ingest files or directories into the collection
  search <query>     print ranked chunks for a query
  context <query>    print the assembled context block for a query
  stats              print collection and retrieval settings
  clear              drop all entries from the collection
  serve              run the HTTP API
  tui                interactive query console
`

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docrag/config.yaml if not provided)")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Assemble components via interfaces
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing", "":
		emb = hashing.New(cfg.Embedder.Dimension)
	case "openai":
		var ocfg openai.Config
		if cfg.Embedder.OpenAI != nil {
			ocfg = openai.Config{
				APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
				Model:     cfg.Embedder.OpenAI.Model,
				Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			}
		}
		emb, err = openai.New(ocfg)
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	case "ollama":
		var lcfg ollama.Config
		if cfg.Embedder.Ollama != nil {
			lcfg = ollama.Config{
				URL:     cfg.Embedder.Ollama.URL,
				Model:   cfg.Embedder.Ollama.Model,
				Timeout: time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
			}
		}
		emb = ollama.New(lcfg)
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var index vectorstore.Index
	switch cfg.Storage.Type {
	case "bolt", "":
		store, err := bolt.Open(cfg.Storage.Root, cfg.Storage.Collection)
		if err != nil {
			log.Fatalf("open collection: %v", err)
		}
		defer store.Close()
		index = store
	case "memory":
		index = memory.New()
	default:
		log.Fatalf("unknown storage: %s", cfg.Storage.Type)
	}

	splitter, err := chunker.NewSplitter(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunker config: %v", err)
	}

	processor := ingest.New(splitter, emb, index, cfg.Ingest.Workers, logger)
	rtr := retriever.New(index, emb, retriever.Config{
		TopK:      cfg.Retriever.TopK,
		Threshold: cfg.Retriever.SimilarityThreshold,
		Rerank:    cfg.Retriever.RerankEnabled(),
	}, logger)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "ingest":
		runIngest(processor, rest)
	case "search":
		runSearch(rtr, cfg, rest)
	case "context":
		runContext(rtr, cfg, rest)
	case "stats":
		runStats(rtr)
	case "clear":
		if err := index.Clear(); err != nil {
			log.Fatalf("clear failed: %v", err)
		}
		fmt.Printf("collection %q cleared\n", cfg.Storage.Collection)
	case "serve":
		runServe(rtr, processor, cfg, logger)
	case "tui":
		m := tui.New(rtr, cfg.Retriever.TopK, cfg.Retriever.SimilarityThreshold)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runIngest(processor *ingest.Processor, paths []string) {
	if len(paths) == 0 {
		log.Fatal("ingest: at least one path required")
	}
	total := 0
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			log.Fatalf("ingest: %v", err)
		}
		var n int
		if info.IsDir() {
			n, err = processor.ProcessDirectory(path)
		} else {
			n, err = processor.IngestFile(path)
		}
		if err != nil {
			log.Fatalf("ingest %s: %v", path, err)
		}
		total += n
	}
	fmt.Printf("indexed %d chunks\n", total)
}

func runSearch(rtr *retriever.Retriever, cfg *config.AppConfig, args []string) {
	query := strings.Join(args, " ")
	results, err := rtr.Retrieve(query, cfg.Retriever.TopK, cfg.Retriever.SimilarityThreshold)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("no grounding found")
		return
	}
	for _, r := range results {
		fmt.Printf("%2d. %.3f  %s\n    %s\n", r.Rank, r.Similarity, r.Meta.Filename, preview(r.Content, 160))
	}
}

func runContext(rtr *retriever.Retriever, cfg *config.AppConfig, args []string) {
	query := strings.Join(args, " ")
	context, err := rtr.Context(query, cfg.Retriever.MaxContextChars)
	if err != nil {
		log.Fatalf("context failed: %v", err)
	}
	fmt.Println(context)
}

func runStats(rtr *retriever.Retriever) {
	stats, err := rtr.Stats()
	if err != nil {
		log.Fatalf("stats failed: %v", err)
	}
	fmt.Printf("documents: %d\ntop_k: %d\nthreshold: %.2f\nrerank: %v\nembedder: %s (dim %d)\n",
		stats.Documents, stats.TopK, stats.Threshold, stats.Rerank, stats.Embedder, stats.Dimension)
}

func runServe(rtr *retriever.Retriever, processor *ingest.Processor, cfg *config.AppConfig, logger *slog.Logger) {
	handler := api.NewHandler(rtr, processor, api.Config{
		TopK:            cfg.Retriever.TopK,
		Threshold:       cfg.Retriever.SimilarityThreshold,
		MaxContextChars: cfg.Retriever.MaxContextChars,
		UploadDir:       cfg.Server.UploadDir,
	}, logger)
	srv := server.New(cfg.Server.Addr, handler, logger)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	logger.Info("received shutdown signal")
	if err := srv.Stop(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func preview(s string, n int) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
