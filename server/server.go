// Package server provides the operational HTTP listener built on Echo.
// It serves liveness and readiness probes and the maintenance job API under /_sys.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

// ReadinessChecker reports whether the database behind the gateway is reachable.
// *database.Connection satisfies it.
type ReadinessChecker interface {
	Health(ctx context.Context) error
	Dialect() types.Dialect
}

// Server represents the HTTP server instance.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger logger.Logger
	ready  ReadinessChecker
}

// New creates a server with middlewares and probe routes registered. A nil checker
// makes the readiness probe report ready unconditionally.
func New(cfg *config.Config, log logger.Logger, ready ReadinessChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	SetupMiddlewares(e, log, cfg)

	s := &Server{
		echo:   e,
		cfg:    cfg,
		logger: log,
		ready:  ready,
	}

	e.GET(cfg.Server.Path.Health, s.healthCheck)
	e.GET(cfg.Server.Path.Ready, s.readyCheck)

	log.Debug().
		Str("health_path", cfg.Server.Path.Health).
		Str("ready_path", cfg.Server.Path.Ready).
		Msg("Server paths configured")

	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins accepting requests and blocks until the server is shut down.
// After Shutdown it returns http.ErrServerClosed.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	srv := s.echo.Server
	srv.Addr = addr
	srv.ReadTimeout = s.cfg.Server.Timeout.Read
	srv.WriteTimeout = s.cfg.Server.Timeout.Write
	srv.IdleTimeout = s.cfg.Server.Timeout.Idle

	return s.echo.StartServer(srv)
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) readyCheck(c echo.Context) error {
	if s.ready == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), DefaultReadyTimeout)
	defer cancel()

	dialect := s.ready.Dialect().String()
	if err := s.ready.Health(ctx); err != nil {
		s.logger.Warn().Err(err).Str("dialect", dialect).Msg("Readiness check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"dialect": dialect,
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"dialect": dialect,
	})
}
