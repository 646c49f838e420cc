// Package server exposes the backtest lab over HTTP: synchronous single
// runs, asynchronous sweeps with progress streaming, and operational
// endpoints.
package server

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/sweep"
)

// Options holds server configuration.
type Options struct {
	Addr   string
	Runner sweep.BacktestRunner

	// SweepWorkers bounds sweep concurrency. Defaults to runtime.NumCPU().
	SweepWorkers int

	// SweepSchedule is a cron expression for the recurring sweep; empty
	// disables it. SweepSpecPath names the JSON sweep spec it loads.
	SweepSchedule string
	SweepSpecPath string

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// Server is the HTTP front end of the lab.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	runner   sweep.BacktestRunner
	executor *sweep.Executor
	registry *jobRegistry
	workers  int
	cron     *cron.Cron

	// cronMu serializes scheduled sweeps; a trigger that fires while the
	// previous sweep still runs is skipped, not queued.
	cronMu sync.Mutex

	metrics *observability.Metrics
	log     zerolog.Logger
}

// New creates an HTTP server. A non-empty SweepSchedule must parse as a
// cron expression or New fails.
func New(opts Options) (*Server, error) {
	workers := opts.SweepWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}

	s := &Server{
		router: chi.NewRouter(),
		runner: opts.Runner,
		executor: sweep.NewExecutor(sweep.Options{
			Runner:  opts.Runner,
			Workers: workers,
			Logger:  opts.Logger,
		}),
		registry: newJobRegistry(),
		workers:  workers,
		metrics:  metrics,
		log:      opts.Logger.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	if err := s.setupCron(opts.SweepSchedule, opts.SweepSpecPath); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:        opts.Addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/backtests", s.handleCreateBacktest)
			r.Post("/sweeps", s.handleCreateSweep)
			r.Get("/sweeps/{id}", s.handleGetSweep)
		})
		// The stream hijacks the connection and outlives request timeouts.
		r.Get("/sweeps/{id}/stream", s.handleSweepStream)
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the scheduler (when configured) and the HTTP listener.
// It blocks until the listener stops.
func (s *Server) Start() error {
	if s.cron != nil {
		s.cron.Start()
		s.log.Info().Msg("sweep scheduler started")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
