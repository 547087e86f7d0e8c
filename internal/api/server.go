package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/rings/internal/auth"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/metrics"
	"github.com/mattjoyce/rings/internal/render"
)

// FrameSource provides the most recent frame from the tick driver.
type FrameSource interface {
	Latest() *render.Frame
}

// Projector renders a frame for an arbitrary instant.
type Projector interface {
	Tick(now time.Time) render.Frame
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is a single bearer token with full access.
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
}

// Server is the HTTP drawing surface: it serves frames as JSON and SVG and
// streams driver events.
type Server struct {
	config    Config
	frames    FrameSource
	projector Projector
	hub       *events.Hub
	metrics   *metrics.Metrics
	authn     *auth.Authenticator
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
	keepAlive time.Duration
}

// New creates a new API server instance. frames and m may be nil.
func New(config Config, frames FrameSource, projector Projector, hub *events.Hub, m *metrics.Metrics, logger *slog.Logger) *Server {
	if hub == nil {
		hub = events.NewHub(256)
	}
	return &Server{
		config:    config,
		frames:    frames,
		projector: projector,
		hub:       hub,
		metrics:   m,
		authn:     auth.New(config.APIKey, config.Tokens),
		logger:    logger.With("component", "api"),
		startedAt: time.Now(),
		keepAlive: 15 * time.Second,
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen, "auth", s.authn.Enabled())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireScopes(auth.ScopeFrameRead)).Get("/frame", s.handleFrame)
		r.With(s.requireScopes(auth.ScopeFrameRead)).Get("/frame.svg", s.handleFrameSVG)
		r.With(s.requireScopes(auth.ScopeFrameRead)).Get("/rings/{ring}", s.handleRing)
		r.With(s.requireScopes(auth.ScopeEventsRead)).Get("/events", s.handleEvents)
		if s.metrics != nil {
			r.With(s.requireScopes(auth.ScopeMetricsRead)).Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
