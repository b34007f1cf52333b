// Package httpapi is the HTTP surface over the store: CSV-based timeseries
// data import/export, administration CRUD for timeseries, a read-only
// event log, plus health and metrics endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/metrics"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// Server wraps the HTTP listener serving the acquisition engine's external
// interface.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	Addr            string
	Store           *store.Store
	Stats           metrics.AcquisitionStats // nil disables subscriber counts in /health
	MetricsEnabled  bool
	ResponseTimeout time.Duration
	StartTime       time.Time
	Log             zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(CORS)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))

	health := NewHealthHandler(opts.Store, opts.Stats, opts.StartTime)
	r.Get("/health", health.ServeHTTP)

	if opts.MetricsEnabled {
		collector := metrics.NewCollector(opts.Store.Pool, opts.Stats)
		prometheus.MustRegister(collector)
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(MaxBodySize(50 << 20)) // CSV imports can be large
		if opts.MetricsEnabled {
			r.Use(metrics.InstrumentHandler)
		}
		timeout := opts.ResponseTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		r.Use(ResponseTimeout(timeout))

		NewTimeseriesDataHandler(opts.Store).Routes(r)
		NewTimeseriesHandler(opts.Store).Routes(r)
		NewEventsHandler(opts.Store).Routes(r)
	})

	return &Server{
		http: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			IdleTimeout:  60 * time.Second,
			WriteTimeout: 0,
		},
		log: opts.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
