// Package server exposes the scheduler callback endpoints and a read-only
// view of builds and tasks.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/diegobridge/internal/completion"
	"github.com/me/diegobridge/internal/store"
)

// maxCallbackBytes bounds callback bodies.
const maxCallbackBytes = 1 << 20

// Pinger reports whether the BBS is reachable. *diego.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) (bool, error)
}

// Server is the callback API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time
	store     store.Store
	staging   *completion.StagingHandler
	tasks     *completion.TaskHandler
	bbs       Pinger // optional; reported by /health
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithBBS lets the health check report BBS reachability.
func WithBBS(p Pinger) Option {
	return func(s *Server) {
		s.bbs = p
	}
}

// New creates a new Server with all routes registered.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		store:     st,
		staging:   completion.NewStagingHandler(st, logger),
		tasks:     completion.NewTaskHandler(st, logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// Scheduler callbacks
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/v3/staging/{guid}/build_completed", s.handleBuildCompleted)
		r.Post("/v4/tasks/{guid}/completed", s.handleTaskCompleted)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/builds", func(r chi.Router) {
			r.Get("/", s.handleListBuilds)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBuild)
				r.Get("/droplet", s.handleGetBuildDroplet)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Get("/{id}", s.handleGetTask)
		})
	})
}
