// Package api serves the analysis, validation and chart endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"blackswans/adapters/pricefile"
	"blackswans/internal/claims"
	"blackswans/internal/config"
	"blackswans/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Options wires a Server. Validator is built from Analysis when nil and
// Logger defaults to a no-op logger.
type Options struct {
	Catalog     *pricefile.Catalog
	Analysis    config.AnalysisConfig
	Validator   *claims.Validator
	Logger      *zerolog.Logger
	SlowRequest time.Duration
}

// Server is the HTTP front of the statistics core
type Server struct {
	router    *chi.Mux
	catalog   *pricefile.Catalog
	defaults  config.AnalysisConfig
	validator *claims.Validator
	metrics   *Metrics
	logger    zerolog.Logger
	slow      time.Duration
}

// NewServer builds the router and its middleware stack
func NewServer(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, errors.ConfigInvalid("api server needs a ticker catalog")
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "api").Logger()
	}

	validator := opts.Validator
	if validator == nil {
		v, err := claims.NewValidator(opts.Analysis.ClaimsConfig(), claims.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		validator = v
	}

	s := &Server{
		router:    chi.NewRouter(),
		catalog:   opts.Catalog,
		defaults:  opts.Analysis,
		validator: validator,
		metrics:   NewMetrics(),
		logger:    logger,
		slow:      opts.SlowRequest,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger, s.slow))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, errors.Newf(errors.CodeNotFound, "no route for %s", r.URL.Path))
	})
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/tickers", s.handleTickers)
		r.Get("/analysis/{ticker}", s.handleAnalysis)
		r.Get("/validation/{ticker}", s.handleValidation)
		r.Get("/chart-data/{ticker}", s.handleChartData)
	})
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves on cfg.Addr until ctx is canceled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.Addr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", cfg.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info().Msg("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
