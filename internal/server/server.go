// Package server exposes the route pipeline over HTTP.
//
// Endpoints:
//
//	GET  /healthz        liveness, build info and dataset size
//	GET  /v1/nodes       nodes of the loaded graph
//	GET  /v1/modes       configured travel modes, time labels and factors
//	POST /v1/routes      route query (pipeline.Options as JSON)
//	POST /v1/weights     per-edge safety weights for a mode and time
//	POST /v1/aggregate   totals for an explicit node sequence
//
// Every response uses the same envelope:
//
//	{"success": true, "data": {...}, "request_id": "..."}
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "request_id": "..."}
//
// Error codes map to statuses: INVALID_INPUT and CONFIGURATION give 400,
// NOT_FOUND 404, NO_PATH and BROKEN_PATH 422, anything else 500.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

// Defaults for [Options].
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20
)

// Options configures the HTTP listener.
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server answers route queries against one loaded dataset. The dataset is
// shared read-only by all requests; every query weighs its own clone.
type Server struct {
	runner *pipeline.Runner
	ds     *source.Dataset
	logger *log.Logger
	router chi.Router
}

// New creates a server for ds. A nil logger discards output.
func New(runner *pipeline.Runner, ds *source.Dataset, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, ds: ds, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(observe)
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/nodes", s.handleNodes)
		r.Get("/modes", s.handleModes)
		r.Post("/routes", s.handleRoutes)
		r.Post("/weights", s.handleWeights)
		r.Post("/aggregate", s.handleAggregate)
	})
	return r
}

// ListenAndServe listens on addr and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, opts Options) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, opts)
}

// Serve accepts connections on ln until ctx is cancelled. In-flight
// requests get opts.ShutdownTimeout to finish. Serve closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener, opts Options) error {
	opts.setDefaults()
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", ln.Addr().String(),
			"nodes", s.ds.Graph.NodeCount(), "edges", s.ds.Graph.EdgeCount())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
