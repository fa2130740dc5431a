// Package apiserver hosts the HTTP API, health endpoints and the
// Prometheus exposition endpoint behind a single http.Server.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/causelab/causeway/internal/api/handlers"
	"github.com/causelab/causeway/internal/api/response"
	"github.com/causelab/causeway/internal/config"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/storage"
)

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// TracingProvider hands out tracers when tracing is enabled.
type TracingProvider interface {
	GetTracer(string) trace.Tracer
	IsEnabled() bool
}

// Options configures the API server.
type Options struct {
	Port     int
	Store    *storage.Store
	Scoring  *config.ScoringProvider
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// MaxConcurrentRequests caps in-flight API requests. Zero disables
	// the limit.
	MaxConcurrentRequests int

	ReadinessChecker ReadinessChecker
	TracingProvider  TracingProvider
}

// Server handles HTTP API requests
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	store            *storage.Store
	scoring          *config.ScoringProvider
	metrics          *metrics.Metrics
	gatherer         prometheus.Gatherer
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	tracingProvider  TracingProvider
	sem              chan struct{}
}

// New creates a new API server
func New(opts Options) *Server {
	s := &Server{
		port:             opts.Port,
		logger:           logging.GetLogger("api"),
		store:            opts.Store,
		scoring:          opts.Scoring,
		metrics:          opts.Metrics,
		gatherer:         opts.Gatherer,
		router:           http.NewServeMux(),
		readinessChecker: opts.ReadinessChecker,
		tracingProvider:  opts.TracingProvider,
	}

	if s.readinessChecker == nil {
		s.readinessChecker = &NoOpReadinessChecker{}
	}
	if opts.MaxConcurrentRequests > 0 {
		s.sem = make(chan struct{}, opts.MaxConcurrentRequests)
	}

	s.registerHandlers()

	handler := s.corsMiddleware(s.concurrencyMiddleware(s.observeMiddleware(s.router)))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// getTracer resolves a tracer, falling back to the global provider.
func (s *Server) getTracer(name string) trace.Tracer {
	if s.tracingProvider != nil && s.tracingProvider.IsEnabled() {
		return s.tracingProvider.GetTracer(name)
	}
	return otel.GetTracerProvider().Tracer(name)
}

// Handler exposes the fully wired handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start implements the lifecycle.Component interface
// Starts the HTTP server and begins listening for requests
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface
// Gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "api-server"
}

// registerHandlers registers all HTTP handlers
func (s *Server) registerHandlers() {
	tracer := s.getTracer("causeway.api")

	handlers.New(s.store, s.scoring, s.metrics, tracer).Register(s.router)

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)

	if s.gatherer != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = response.WriteJSON(w, map[string]interface{}{
		"status": "healthy",
	})
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.readinessChecker.IsReady()

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = response.WriteJSON(w, map[string]interface{}{
		"ready": ready,
	})
}
