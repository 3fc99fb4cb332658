// Package httpapi serves the node catalogue, node dispatch and the workflow
// store over HTTP for the browser workflow editor.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petrijr/nodeflux/internal/persistence"
	"github.com/petrijr/nodeflux/pkg/api"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Config wires the handler to its collaborators.
type Config struct {
	Dispatcher api.Dispatcher
	Workflows  persistence.WorkflowStore
	// Gatherer is served at /metrics when non-nil.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is an http.Server running the API handler.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewHandler builds the API routes.
func NewHandler(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &handler{
		dispatcher: cfg.Dispatcher,
		workflows:  cfg.Workflows,
		logger:     cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health/{$}", h.health)
	mux.HandleFunc("GET /api/nodes/{$}", h.listNodes)
	mux.HandleFunc("POST /api/nodes/{id}/execute/{$}", h.executeNode)

	if cfg.Workflows != nil {
		mux.HandleFunc("GET /api/workflows/{$}", h.listWorkflows)
		mux.HandleFunc("POST /api/workflows/create/{$}", h.createWorkflow)
		mux.HandleFunc("GET /api/workflows/{id}/{$}", h.getWorkflow)
		mux.HandleFunc("PUT /api/workflows/{id}/{$}", h.updateWorkflow)
		mux.HandleFunc("PATCH /api/workflows/{id}/{$}", h.updateWorkflow)
		mux.HandleFunc("DELETE /api/workflows/{id}/{$}", h.deleteWorkflow)
	}
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return accessLog(cfg.Logger, mux)
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(cfg),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError),
		},
		logger: cfg.Logger,
	}
}

// Serve accepts connections on l until Shutdown is called. It returns nil
// after a clean shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("http server listening", slog.String("addr", l.Addr().String()))
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.LogAttrs(r.Context(), slog.LevelDebug, "http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
