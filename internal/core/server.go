// Package core provides the HTTP chassis for eventcast. It builds a chi
// router that serves both a standard HTTP listener (local and container
// deployments) and API Gateway events in Lambda, and applies the
// cross-cutting concerns (recovery, request IDs, logging, CORS, metrics,
// compression) before requests reach the handlers.
package core

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventcast/internal/config"
	"eventcast/internal/metrics"
)

// Server holds everything the chassis needs. Handlers are attached through
// V1RouteRegistrars so core never imports handler packages.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   metrics.Recorder

	// HealthProbes are run by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars mount domain routes under /v1.
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer validates its inputs and prepares an empty router. Call
// MountRoutes after registering probes and route registrars.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		Metrics:   metrics.Noop{},
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the root handler for http.Server or the Lambda adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi.Mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
