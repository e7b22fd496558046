// Package http serves a finished validation run over a small JSON API:
// the reference categories with their sizes, the indicator results and
// the usual health and metrics endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"actval/internal/compare"
	"actval/internal/config"
	"actval/internal/stats"
)

// Server exposes a validation run over HTTP.
type Server struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer builds the server around an immutable run: the reference
// set and the comparison results computed against it.
func NewServer(cfg config.ServerConfig, reference *stats.ValidationSet, results []compare.Result, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}

	h := newRunHandler(reference, results, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.ReadTimeout))
	r.Use(requestMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/sizes", h.CategorySizes)
			r.Get("/{filename}", h.CategoryStatistics)
		})
		r.Route("/results", func(r chi.Router) {
			r.Get("/", h.ListResults)
			r.Get("/overview", h.Overview)
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start runs the server until the context is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "report server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("report server stopped")
	return nil
}

// startTime is captured once for the uptime in health responses.
var startTime = time.Now()

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actval_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actval_http_request_duration_seconds",
		Help:    "HTTP request duration by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// requestMetrics records a counter and duration per request.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		httpRequests.WithLabelValues(r.Method, fmt.Sprintf("%d", ww.Status())).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
