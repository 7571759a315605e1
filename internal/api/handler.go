// Package api exposes the retrieval pipeline over HTTP. It is a thin
// surface: bodies are validated, defaults filled from configuration, and
// the work delegated to the retriever and the ingestion processor.
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docrag/internal/domain"
	"docrag/internal/extract"
	"docrag/internal/ingest"
	"docrag/internal/retriever"
)

var validate = validator.New()

// Config carries the request defaults the handler fills in when a body
// omits them.
type Config struct {
	TopK            int
	Threshold       float64
	MaxContextChars int
	UploadDir       string
}

// Handler serves the query and ingestion endpoints.
type Handler struct {
	retriever *retriever.Retriever
	processor *ingest.Processor
	cfg       Config
	logger    *slog.Logger
}

func NewHandler(r *retriever.Retriever, p *ingest.Processor, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{retriever: r, processor: p, cfg: cfg, logger: logger}
}

// SearchParams is the body of POST /api/v1/search. Source and DocType are
// optional post-filters.
type SearchParams struct {
	Query     string  `json:"query" validate:"required"`
	TopK      int     `json:"top_k" validate:"omitempty,gt=0"`
	Threshold float64 `json:"similarity_threshold" validate:"omitempty,gte=0,lte=1"`
	Source    string  `json:"source,omitempty"`
	DocType   string  `json:"doc_type,omitempty"`
}

// SearchResponse lists retrieved chunks with provenance for display.
type SearchResponse struct {
	Query     string                  `json:"query"`
	Results   []domain.RetrievedChunk `json:"results"`
	Count     int                     `json:"count"`
	Timestamp time.Time               `json:"timestamp"`
}

func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	var params SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := validateStruct(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}
	if params.TopK == 0 {
		params.TopK = h.cfg.TopK
	}
	if params.Threshold == 0 {
		params.Threshold = h.cfg.Threshold
	}

	var (
		results []domain.RetrievedChunk
		err     error
	)
	switch {
	case params.Source != "":
		results, err = h.retriever.RetrieveBySource(params.Query, params.Source, params.TopK, params.Threshold)
	case params.DocType != "":
		results, err = h.retriever.RetrieveByType(params.Query, params.DocType, params.TopK, params.Threshold)
	default:
		results, err = h.retriever.Retrieve(params.Query, params.TopK, params.Threshold)
	}
	if err != nil {
		return err
	}
	return c.JSON(SearchResponse{
		Query:     params.Query,
		Results:   results,
		Count:     len(results),
		Timestamp: time.Now(),
	})
}

// ContextParams is the body of POST /api/v1/context.
type ContextParams struct {
	Query    string `json:"query" validate:"required"`
	MaxChars int    `json:"max_chars" validate:"omitempty,gt=0"`
}

func (h *Handler) HandleContext(c *fiber.Ctx) error {
	var params ContextParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := validateStruct(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}
	if params.MaxChars == 0 {
		params.MaxChars = h.cfg.MaxContextChars
	}
	context, err := h.retriever.Context(params.Query, params.MaxChars)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"context": context, "chars": len(context)})
}

// HandleUpload accepts a multipart document, stores it under a unique name
// in the upload directory and ingests it. The original filename is kept as
// a suffix so chunk provenance stays readable.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}
	if !extract.Supported(file.Filename) {
		return NewError(fiber.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type: %s", filepath.Ext(file.Filename)))
	}
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("%w: create upload dir: %v", domain.ErrStorage, err)
	}

	id := uuid.New()
	path := filepath.Join(h.cfg.UploadDir, id.String()+"_"+filepath.Base(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		return fmt.Errorf("%w: save upload: %v", domain.ErrStorage, err)
	}
	h.logger.Info("upload saved", "id", id, "path", path)

	chunks, err := h.processor.IngestFile(path)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "filename": file.Filename, "chunks": chunks})
}

// IngestParams is the body of POST /api/v1/ingest: a server-local directory
// to walk.
type IngestParams struct {
	Path string `json:"path" validate:"required"`
}

func (h *Handler) HandleIngest(c *fiber.Ctx) error {
	var params IngestParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := validateStruct(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}
	count, err := h.processor.ProcessDirectory(params.Path)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"path": params.Path, "chunks": count})
}

func (h *Handler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.retriever.Stats()
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (h *Handler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func validateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	errs := err.(validator.ValidationErrors)
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return out
}
