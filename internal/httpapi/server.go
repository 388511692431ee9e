// Package httpapi exposes the task operations over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/runoshun/git-pilot/internal/app"
)

// Server timeouts. Apply and test requests run git, the agent and the
// test command, so there is no write timeout.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// DefaultSource is the source label of tasks created over HTTP.
const DefaultSource = "http"

// Server serves the task API.
type Server struct {
	c      *app.Container
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a server over the container's use cases.
func New(c *app.Container) *Server {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{c: c, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /tasks/from-message", s.handleCreateFromMessage)
	s.mux.HandleFunc("POST /tasks", s.handleCreate)
	s.mux.HandleFunc("GET /tasks", s.handleList)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleGet)
	s.mux.HandleFunc("POST /tasks/{id}/apply", s.handleApply)
	s.mux.HandleFunc("POST /tasks/{id}/test", s.handleTest)
	s.mux.HandleFunc("POST /tasks/{id}/close", s.handleClose)
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
