// Package api serves read-only lookups over the last materialized motor
// identity and section feature tables.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/motorgen/internal/adapters/repository"
	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	"github.com/okian/motorgen/internal/domain/types"
	"github.com/okian/motorgen/pkg/logger"
	"github.com/okian/motorgen/pkg/metrics"
)

// FeatureSource returns the stored sections of a motor identity.
type FeatureSource interface {
	Features(ctx context.Context, identity string) ([]sqlite.FeatureRecord, error)
}

// RunSource returns recent stage runs.
type RunSource interface {
	Runs(ctx context.Context, limit int) ([]sqlite.Run, error)
}

// Server wires HTTP routes for the lookup API.
type Server struct {
	index    repository.Store
	version  func() uint64
	features FeatureSource
	runs     RunSource
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithFeatures enables the features endpoint.
func WithFeatures(f FeatureSource) Option {
	return func(s *Server) { s.features = f }
}

// WithRuns enables the run history endpoint.
func WithRuns(r RunSource) Option {
	return func(s *Server) { s.runs = r }
}

// WithVersion reports the index version on /healthz.
func WithVersion(v func() uint64) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an API server over an interval index.
func NewServer(index repository.Store, opts ...Option) *Server {
	s := &Server{index: index, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/slots/{venue}/{motor}/intervals", MetricsMiddleware(s.handleIntervals, "intervals"))
		r.Get("/slots/{venue}/{motor}/identity", MetricsMiddleware(s.handleIdentity, "identity"))
		r.Get("/identities/{identity}", MetricsMiddleware(s.handleInterval, "interval"))
		r.Get("/identities/{identity}/features", MetricsMiddleware(s.handleFeatures, "features"))
		r.Get("/runs", MetricsMiddleware(s.handleRuns, "runs"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// fail maps lookup errors to 404 or 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.logger.Error(r.Context(), "lookup failed", logger.String("path", r.URL.Path), logger.Error(err))
	writeError(w, http.StatusInternalServerError, err)
}
