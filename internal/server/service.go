// Package server provides the HTTP surface of prompter: auth, session
// lifecycle, question submission, transcripts, and live event streaming.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/internal/auth"
	"github.com/prompterhq/prompter/internal/config"
	"github.com/prompterhq/prompter/internal/db"
	"github.com/prompterhq/prompter/internal/pipeline"
	"github.com/prompterhq/prompter/internal/server/sse"
	"github.com/prompterhq/prompter/internal/session"
)

// Service wires the HTTP routes to the core components.
type Service struct {
	version string
	config  *config.Config

	store    *db.Store
	users    *db.UserStore
	auth     *auth.Service
	sessions *session.Manager
	pipeline *pipeline.Pipeline

	broadcaster *sse.Broadcaster
	router      chi.Router

	ready     atomic.Bool
	startTime time.Time
}

// Deps carries the constructed core components.
type Deps struct {
	Config      *config.Config
	Store       *db.Store
	Users       *db.UserStore
	Auth        *auth.Service
	Sessions    *session.Manager
	Pipeline    *pipeline.Pipeline
	Broadcaster *sse.Broadcaster
}

// New creates the HTTP service and registers its routes.
func New(version string, deps Deps) *Service {
	svc := &Service{
		version:     version,
		config:      deps.Config,
		store:       deps.Store,
		users:       deps.Users,
		auth:        deps.Auth,
		sessions:    deps.Sessions,
		pipeline:    deps.Pipeline,
		broadcaster: deps.Broadcaster,
		router:      chi.NewRouter(),
		startTime:   time.Now(),
	}
	svc.setupRoutes()
	svc.ready.Store(true)
	return svc
}

// Router exposes the configured router (used by tests and Run).
func (s *Service) Router() http.Handler {
	return s.router
}

func (s *Service) setupRoutes() {
	s.router.Use(requestLogger)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAuth).Get("/me", s.handleMe)
		r.With(s.requireAuth).Put("/preferences", s.handleUpdatePreferences)
	})

	s.router.Route("/api/session", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/create", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Post("/{sessionID}/end", s.handleEndSession)
	})

	s.router.Route("/api/interview", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/answer", s.handleAnswer)
		r.Post("/transcript", s.handleTranscript)
		r.Get("/summary/{sessionID}", s.handleSummary)
	})

	s.router.With(s.requireAuth).Get("/api/events/{sessionID}", s.handleEvents)
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.config.Port).Str("version", s.version).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}
