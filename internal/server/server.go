// Package server exposes the departure board over HTTP as JSON, for
// browser kiosk screens.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/registry"
	"github.com/perron-board/perron/internal/search"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	lookupTimeout     = 10 * time.Second
)

// Config wires the server to the engine
type Config struct {
	Addr           string
	AllowedOrigins []string
	Registry       *registry.Registry
	Scheduler      *board.Scheduler
	Searcher       search.Searcher
	// Kiosk forbids adding and removing stations
	Kiosk    bool
	Location *time.Location
}

// Server serves the board API
type Server struct {
	cfg    Config
	router chi.Router
	// ctx outlives requests; refreshes started by POST run on it
	ctx context.Context
}

// New creates a server and its routes
func New(cfg Config) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{cfg: cfg, ctx: context.Background()}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stations", s.listStations)
		r.Post("/stations", s.addStation)
		r.Delete("/stations/{id}", s.removeStation)
		r.Get("/board", s.getBoard)
		r.Get("/search", s.searchStations)
	})

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server starting on %s", s.cfg.Addr)
		log.Println("  GET    /health")
		log.Println("  GET    /api/stations")
		log.Println("  POST   /api/stations")
		log.Println("  DELETE /api/stations/{id}")
		log.Println("  GET    /api/board")
		log.Println("  GET    /api/search?q=")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("API server stopped")
	return nil
}
