package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/drafts"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pipeline"
	"github.com/dgallion1/citegest/internal/retriever"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the components the HTTP surface reads from and drives.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Loader       *loader.Loader
	Documents    *retriever.Store
	Generator    *modes.Generator
	Drafts       drafts.Store
	Stats        *llm.LLMStats
}

// Server is the HTTP API server for citegest.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleIngest)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/strategies", s.handleStrategies)

		r.Get("/api/document", s.handleDocument)
		r.Get("/api/document/toc", s.handleTOC)
		r.Get("/api/chapters/{num}", s.handleChapter)
		r.Get("/api/sections/{num}", s.handleSection)
		r.Get("/api/sections/{num}/context", s.handleSectionContext)
		r.Get("/api/citations/resolve", s.handleResolve)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/topics", s.handleTopic)
		r.Get("/api/events", s.handleEvents)

		r.Post("/api/generate", s.handleGenerate)
		r.Get("/api/drafts", s.handleListDrafts)
		r.Get("/api/drafts/{id}", s.handleGetDraft)
		r.Patch("/api/drafts/{id}", s.handleReviseDraft)
		r.Delete("/api/drafts/{id}", s.handleDeleteDraft)

		r.Get("/api/providers", s.handleProviders)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Documents.Current()
	body := map[string]any{"status": "ok", "document_loaded": snap != nil}
	if snap != nil {
		body["document"] = snap.Retriever.Document().Name
	}
	writeJSON(w, http.StatusOK, body)
}
