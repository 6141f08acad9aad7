package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/runstore"
	"github.com/fyrsmithlabs/taskgate/internal/sweep"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// MaxSweepVariants caps n on POST /api/v1/sweeps.
	MaxSweepVariants int
}

// Server exposes the run and sweep API over HTTP.
type Server struct {
	echo    *echo.Echo
	eval    *evidence.Evaluator
	sampler *sweep.Sampler
	store   *runstore.Store
	logger  *zap.Logger
	config  *Config
}

// New creates the HTTP server with all routes registered.
func New(eval *evidence.Evaluator, sampler *sweep.Sampler, store *runstore.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if eval == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is required")
	}
	if store == nil {
		return nil, fmt.Errorf("run store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8420, MaxSweepVariants: 1000}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			RequestDuration.WithLabelValues(c.Request().Method, c.Path()).
				Observe(duration.Seconds())
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		eval:    eval,
		sampler: sampler,
		store:   store,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/runs", s.handleCreateRun)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	v1.GET("/runs/:id/evidence", s.handleGetEvidence)
	v1.POST("/sweeps", s.handleCreateSweep)
	v1.GET("/sweeps/:id", s.handleGetSweep)
}

// Echo returns the underlying echo instance, used by handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
