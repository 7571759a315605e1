// Package server wires the HTTP API onto a fiber app.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docrag/internal/api"
)

// Server owns the fiber app and its listen address.
type Server struct {
	listenAddr string
	app        *fiber.App
	logger     *slog.Logger
}

// New builds the app and registers the routes.
func New(addr string, handler *api.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})

	check := app.Group("/check")
	check.Get("/healthy", handler.HandleHealthy)

	apiv1 := app.Group("/api/v1")
	apiv1.Post("/search", handler.HandleSearch)
	apiv1.Post("/context", handler.HandleContext)
	apiv1.Post("/documents", handler.HandleUpload)
	apiv1.Post("/ingest", handler.HandleIngest)
	apiv1.Get("/stats", handler.HandleStats)

	return &Server{listenAddr: addr, app: app, logger: logger}
}

// Run blocks serving HTTP until Stop is called or the listener fails.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.listenAddr)
	return s.app.Listen(s.listenAddr)
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.logger.Info("http server stopping")
	return s.app.Shutdown()
}
