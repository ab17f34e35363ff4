// Package http provides the HTTP server and its middleware stack.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/http/middleware"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

// Server represents the HTTP server.
type Server struct {
	httpServer   *http.Server
	mux          chi.Router
	config       *config.Config
	logger       *logger.Logger
	cleanupFuncs []func()
}

// NewServer creates a new HTTP server with the global middleware stack
// applied. Routes are registered on the router returned by Router.
func NewServer(cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.CleanPath)
	mux.Use(chimw.StripSlashes)

	rateLimitMw, rateLimitStop := middleware.RateLimitWithStop(&cfg.RateLimit, log)
	s.cleanupFuncs = append(s.cleanupFuncs, rateLimitStop)

	// Order matters: recovery outermost, request logging innermost.
	mux.Use(middleware.Recovery(log, cfg.IsProduction()))
	mux.Use(middleware.RequestID())
	mux.Use(middleware.BodyLimit(cfg.Server.MaxBodySize))
	mux.Use(rateLimitMw)
	mux.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	mux.Use(middleware.Metrics())
	mux.Use(middleware.Logger(log))

	s.mux = mux
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	return s
}

// Router returns the router for registering handlers.
func (s *Server) Router() chi.Router {
	return s.mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.config.Server.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	for _, cleanup := range s.cleanupFuncs {
		cleanup()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
