// Package server provides the HTTP API for Mitsukeru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/config"
	"github.com/nitobe/mitsukeru/internal/ingest"
	"github.com/nitobe/mitsukeru/internal/rag"
	"github.com/nitobe/mitsukeru/internal/storage"
	"github.com/nitobe/mitsukeru/internal/verify"
)

// Server is the HTTP server for the Mitsukeru API.
type Server struct {
	verifier *verify.Engine
	rag      *rag.Engine
	corpus   *rag.Corpus
	store    storage.Store
	loader   *ingest.Loader
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	verifier *verify.Engine,
	ragEngine *rag.Engine,
	corpus *rag.Corpus,
	store storage.Store,
	loader *ingest.Loader,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		verifier: verifier,
		rag:      ragEngine,
		corpus:   corpus,
		store:    store,
		loader:   loader,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	r.Post("/api/v1/verify", s.handleVerify)
	r.Post("/api/v1/verify/upload", s.handleVerifyUpload)
	r.Get("/api/v1/keywords", s.handleKeywordsList)
	r.Put("/api/v1/keywords", s.handleKeywordsReplace)

	r.Post("/api/v1/retrieve", s.handleRetrieve)
	r.Post("/api/v1/generate", s.handleGenerate)
	r.Post("/api/v1/snippets/reload", s.handleSnippetsReload)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
