// Package callback is the worker-facing HTTP surface: the daemon listens on
// a loopback address and workers POST progress, results, and questions for
// their commission. The address is handed to each worker in its config file.
package callback

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/atelierhq/atelier/internal/log"
)

// Reporter is the engine-side sink for worker callbacks. Reports never fail
// from the worker's point of view; unknown or finalized commissions are
// dropped server-side.
type Reporter interface {
	ReportProgress(ctx context.Context, id, summary string)
	ReportResult(ctx context.Context, id, summary string, artifacts []string)
	ReportQuestion(ctx context.Context, id, question string)
}

// Config holds callback server configuration.
type Config struct {
	Listen string
}

// Server is the callback HTTP server.
type Server struct {
	config   Config
	reporter Reporter
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
	addr     string
}

// New creates a callback server delivering reports to reporter.
func New(config Config, reporter Reporter) *Server {
	return &Server{
		config:   config,
		reporter: reporter,
		logger:   log.WithComponent("callback"),
	}
}

// Addr returns the bound listen address, valid after Bind.
func (s *Server) Addr() string { return s.addr }

// SetReporter installs the report sink. The engine needs the bound callback
// address at construction, so the daemon binds first and attaches the engine
// here before Start.
func (s *Server) SetReporter(r Reporter) { s.reporter = r }

// Bind opens the listener. Callers that need the resolved address before
// serving (the engine hands it to every worker) bind first, then Start.
func (s *Server) Bind() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("bind callback listener: %w", err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Start serves until ctx is cancelled (blocking). Binds if Bind was not
// called already.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Bind(); err != nil {
		return err
	}
	router := s.setupRoutes()

	s.server = &http.Server{
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("callback server starting", "listen", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("callback server shutting down")
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

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1/commissions/{commissionID}", func(r chi.Router) {
		r.Post("/progress", s.handleProgress)
		r.Post("/result", s.handleResult)
		r.Post("/question", s.handleQuestion)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
