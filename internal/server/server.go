// Package server provides the HTTP API for Kalima.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/config"
	"github.com/hyperjump/kalima/internal/ingest"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/segment"
	"github.com/hyperjump/kalima/internal/storage"
)

// WatchService manages the watched import directories.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, importExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the Kalima API.
type Server struct {
	ingest    *ingest.Service
	storage   storage.Storage
	lexicon   lexicon.Index
	suggester *lexicon.Suggester
	cache     *segment.Cache
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server

	watch      WatchService
	configPath string
	configMu   sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatch exposes the import directory endpoints. Changes are saved to configPath
// when it is set.
func WithWatch(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// WithSuggester enables spelling suggestions for lexicon searches without hits.
func WithSuggester(sg *lexicon.Suggester) Option {
	return func(s *Server) { s.suggester = sg }
}

// WithSegmentCache shares a segmentation cache with the segment endpoint.
func WithSegmentCache(c *segment.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	svc *ingest.Service,
	store storage.Storage,
	lex lexicon.Index,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		ingest:  svc,
		storage: store,
		lexicon: lex,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/lemma-locations", s.handleLemmaLocations)
		r.Get("/lemmas/{id}", s.handleGetLemma)
		r.Post("/verses/{surah}/{ayah}/tokens", s.handleResolveVerse)
		r.Get("/verses/{surah}/{ayah}/tokens", s.handleVerseTokens)
		r.Post("/segment", s.handleSegment)
		r.Post("/canonical/{entity}", s.handleCanonical)
		r.Post("/grammar-links", s.handleAddGrammarLink)
		r.Get("/grammar-links", s.handleListGrammarLinks)
		r.Get("/lexicon/search", s.handleLexiconSearch)
		r.Post("/imports", s.handleImport)
		r.Get("/imports/directories", s.handleImportDirectoriesList)
		r.Post("/imports/directories", s.handleImportDirectoriesAdd)
		r.Delete("/imports/directories", s.handleImportDirectoriesRemove)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Address()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
