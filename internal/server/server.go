// Package server provides the HTTP API for Quizzy.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/config"
	"github.com/BillStark001/quizzy/internal/docstore"
	"github.com/BillStark001/quizzy/internal/indexer"
	"github.com/BillStark001/quizzy/internal/search"
)

// Server is the HTTP server for the Quizzy API.
type Server struct {
	engine  *search.Engine
	store   *docstore.Store
	indexer *indexer.Indexer
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	store *docstore.Store,
	idx *indexer.Indexer,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		store:   store,
		indexer: idx,
		config:  cfg,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/questions/import", s.handleImportQuestions)
		r.Get("/questions", s.handleListQuestionIds)
		r.Get("/questions/{id}", s.handleGetQuestion)
		r.Patch("/questions/{id}", s.handleUpdateQuestion)
		r.Delete("/questions/{id}", s.handleDeleteQuestion)

		r.Post("/papers/import", s.handleImportPapers)
		r.Get("/papers", s.handleListPaperIds)
		r.Get("/papers/{id}", s.handleGetPaper)
		r.Patch("/papers/{id}", s.handleUpdatePaper)
		r.Delete("/papers/{id}", s.handleDeletePaper)

		r.Post("/records/import", s.handleImportRecords)
		r.Get("/records/{id}", s.handleGetRecord)

		r.Post("/search/questions", s.handleFindQuestions)
		r.Post("/search/questions/tags", s.handleFindQuestionsByTags)
		r.Post("/search/papers", s.handleFindPapers)
		r.Post("/search/papers/tags", s.handleFindPapersByTags)
		r.Get("/tags", s.handleFindTags)

		r.Post("/index/refresh", s.handleRefreshIndices)
		r.Post("/maintenance/unlinked", s.handleDeleteUnlinked)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
