// Package api provides the HTTP API and middleware for the service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-dev/inkwell/internal/auth"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/store"
	"github.com/inkwell-dev/inkwell/internal/subscription"
)

// Server is the HTTP API server.
type Server struct {
	store        store.Store
	authProvider auth.Provider
	subs         *subscription.Service
	logger       *slog.Logger
	mux          *chi.Mux
	startTime    time.Time
	maxBodyBytes int64
	authRL       *rateLimiter
	rl           *rateLimiter
}

// NewServer creates a new API server.
func NewServer(s store.Store, ap auth.Provider, subs *subscription.Service, cfg *config.Config, logger *slog.Logger) *Server {
	srv := &Server{
		store:        s,
		authProvider: ap,
		subs:         subs,
		logger:       logger.With("component", "api"),
		startTime:    time.Now(),
		maxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(chimw.RealIP)
	mux.Use(securityHeadersMiddleware)
	mux.Use(makeCORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check routes (unauthenticated)
	mux.Get("/healthz", srv.handleHealthz)
	mux.Get("/readyz", srv.handleReadyz)

	// Auth callback routes: delegated entirely to the provider, with caching
	// disabled so no intermediary serves a stale auth response.
	srv.authRL = newRateLimiter(5, 10)
	mux.Group(func(r chi.Router) {
		r.Use(noStoreMiddleware)
		r.Use(ipRateLimitMiddleware(srv.authRL))
		r.Mount("/api/auth", ap.Handler())
	})

	// Posts resource
	srv.rl = newRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	mux.Group(func(r chi.Router) {
		r.Use(noStoreMiddleware)
		r.Use(srv.sessionMiddleware)
		r.Use(rateLimitMiddleware(srv.rl))

		r.Get("/api/posts", srv.handleListPosts)
		r.Post("/api/posts", srv.handleCreatePost)
		r.Get("/api/posts/{postID}", srv.handleGetPost)
	})

	srv.mux = mux
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartBackgroundTasks starts periodic cleanup tasks for rate limiters.
func (s *Server) StartBackgroundTasks(ctx context.Context) {
	s.authRL.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)
	s.rl.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)
}

// --- Health handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
