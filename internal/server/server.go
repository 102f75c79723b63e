// Package server provides the HTTP API for palilex.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/prompt"
	"github.com/hyperjump/palilex/internal/search"
	"go.uber.org/zap"
)

// Reloader re-reads the dictionary source on demand.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Server is the HTTP server for the palilex API.
type Server struct {
	engine   *search.Engine
	prompts  *prompt.Builder
	reloader Reloader
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. reloader may be nil, in which
// case the reload endpoint answers 501.
func NewServer(
	engine *search.Engine,
	prompts *prompt.Builder,
	reloader Reloader,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:   engine,
		prompts:  prompts,
		reloader: reloader,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/search/semantic", s.handleSemanticSearch)
		r.Get("/enrich", s.handleEnrich)
		r.Get("/lookup", s.handleLookup)
		r.Post("/prompt", s.handlePrompt)
		r.Post("/index/build", s.handleBuildIndex)
		r.Post("/dictionary/reload", s.handleReload)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
