// Package server assembles the HTTP router and the middleware stack shared
// by every route: request IDs, structured request logging, the per-request
// run budget, panic recovery, and OpenTelemetry instrumentation.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultRunBudget bounds one webhook processing run. Exceeding it cancels
// the request context, which the responder treats as a generation failure.
const DefaultRunBudget = 300 * time.Second

// Server owns the router and HTTP listener.
type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	http   *http.Server
}

// New builds a server with the standard middleware stack. runBudget <= 0
// falls back to DefaultRunBudget.
func New(port int, runBudget time.Duration, logger *slog.Logger) *Server {
	if runBudget <= 0 {
		runBudget = DefaultRunBudget
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(runBudget))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "relaydesk")
	})

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
	}
}

// Start listens until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
