// Package server exposes the webhook listener and run history API.
//
// POST /hooks/push accepts push deliveries, optionally verified with an
// HMAC signature, matches them against the configured workflow, and
// enqueues accepted runs on a bounded worker pool. GET /runs and
// GET /runs/{id} serve persisted run records, GET /logs/* serves step
// logs, and /metrics exposes Prometheus instrumentation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowci/internal/history"
	"flowci/internal/trigger"
	"flowci/internal/workflow"
)

// shutdownTimeout bounds how long in-flight HTTP requests may take once
// shutdown begins. Queued runs are drained separately by the worker pool.
const shutdownTimeout = 30 * time.Second

// WorkflowRunner starts a run for a delivered event. The runner.Runner
// type implements this interface.
type WorkflowRunner interface {
	RunWithID(ctx context.Context, wf *workflow.Workflow, event *trigger.PushEvent, id string) (*history.Run, error)
}

// RunStore reads persisted run records and step logs. The history.Store
// type implements this interface.
type RunStore interface {
	Get(id string) (*history.Run, error)
	List(limit int) ([]*history.Run, error)
	ReadLog(logPath string) ([]byte, error)
}

// Config carries the server's dependencies and settings.
type Config struct {
	Logger   *slog.Logger
	Workflow *workflow.Workflow
	Runner   WorkflowRunner
	Store    RunStore

	// Addr is the listen address for [Server.Start].
	Addr string

	// Secret, when non-empty, requires every delivery to carry a valid
	// HMAC-SHA256 signature of its body.
	Secret string

	// Workers bounds how many runs execute concurrently.
	Workers int

	// ListLimit is the default page size for GET /runs.
	ListLimit int
}

// Server routes webhook deliveries and history requests.
type Server struct {
	log    *slog.Logger
	cfg    *Config
	router chi.Router
	pool   pond.Pool
}

// New creates a Server and configures its routes.
func New(cfg *Config) (*Server, error) {
	if cfg.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 20
	}

	s := &Server{
		log:    cfg.Logger,
		cfg:    cfg,
		router: chi.NewRouter(),
		pool:   pond.NewPool(cfg.Workers),
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Post("/hooks/push", s.handlePushHook)
	s.router.Get("/runs", s.handleListRuns)
	s.router.Get("/runs/{id}", s.handleGetRun)
	s.router.Get("/logs/*", s.handleLog)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
	})
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully:
// in-flight requests get shutdownTimeout to finish and the worker pool
// drains, so accepted runs complete before Start returns.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down, draining queued runs")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.pool.StopAndWait()
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "error", err)
	} else {
		s.log.Warn("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
