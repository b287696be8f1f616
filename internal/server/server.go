package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graphweave/graphweave/internal/engine"
	"github.com/graphweave/graphweave/internal/store"
)

// Server is the graphweave local HTTP API. It is a thin JSON surface over
// the engine; the engine itself stays embeddable without it.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine, and version.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
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

		r.Post("/memories", s.handleAddMemory)
		r.Post("/memories/batch", s.handleAddBatch)
		r.Get("/search", s.handleSearch)
		r.Get("/entities/{name}", s.handleExploreEntity)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
}
