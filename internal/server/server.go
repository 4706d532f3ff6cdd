package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hermes-labs/keeper/internal/engine"
	"github.com/hermes-labs/keeper/internal/store"
)

// Server is the keeper HTTP API server: the thin ingestion/retrieval boundary
// over the engine.
type Server struct {
	engine  *engine.Engine
	db      *store.DB // nil when running memory-only
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given engine. db may be nil.
func New(eng *engine.Engine, db *store.DB, version string) *Server {
	s := &Server{
		engine:  eng,
		db:      db,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/context", s.handleStoreContext)
		r.Get("/context/search", s.handleRetrieveContext)
		r.Post("/context/summarize", s.handleSummarize)
		r.Get("/context/summaries", s.handleListSummaries)
		r.Get("/context/stats", s.handleStatistics)
		r.Get("/context/{chunkID}", s.handleGetChunk)
		r.Post("/context/{chunkID}/compress", s.handleCompressContext)
		r.Delete("/context/{chunkID}", s.handleDeleteContext)

		r.Post("/maintenance/sweep", s.handleSweep)

		r.Post("/conversations", s.handleCreateConversation)
		r.Post("/conversations/{convID}/messages", s.handleAppendMessage)
		r.Get("/conversations/{convID}/messages", s.handleListMessages)
		r.Post("/conversations/{convID}/curate", s.handleCurate)
		r.Get("/conversations/{convID}/summaries", s.handleConversationSummaries)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	dbPath := ""
	if s.db != nil {
		dbPath = s.db.Path
		if err := s.db.Ping(); err != nil {
			dbOK = false
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": dbPath,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
