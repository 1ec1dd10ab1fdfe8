package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/logger"
)

// SetupMiddlewares registers the middleware chain of the operational listener:
// request ids, tracing, per-request database counters, request logging, panic
// recovery, security headers, body limit and optional rate limiting.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(otelecho.Middleware(cfg.App.Name, otelecho.WithSkipper(func(c echo.Context) bool {
		return isProbePath(c, cfg)
	})))

	e.Use(PerformanceStats())

	e.Use(Logger(log, cfg.Server.Path.Health, cfg.Server.Path.Ready))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("stack", string(stack)).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            3600,
		ContentSecurityPolicy: "default-src 'none'",
	}))

	e.Use(middleware.BodyLimit(DefaultBodyLimit))

	e.Use(RateLimit(cfg.Server.RateLimit))
}

func isProbePath(c echo.Context, cfg *config.Config) bool {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	return path == cfg.Server.Path.Health || path == cfg.Server.Path.Ready
}
