package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/heritagehub/cms/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// HealthPath and ReadyPath are probe endpoints excluded from the request log.
	HealthPath string
	ReadyPath  string

	// SlowRequestThreshold marks requests exceeding it with result_code="WARN".
	// Zero disables slow request detection.
	SlowRequestThreshold time.Duration
}

// Logger returns a request logging middleware with the default slow request threshold.
func Logger(log logger.Logger, healthPath, readyPath string) echo.MiddlewareFunc {
	return LoggerWithConfig(log, LoggerConfig{
		HealthPath:           healthPath,
		ReadyPath:            readyPath,
		SlowRequestThreshold: DefaultSlowRequestThreshold,
	})
}

// LoggerWithConfig returns a middleware emitting one summary line per request, carrying
// the database operation count and time accumulated by PerformanceStats.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if path == cfg.HealthPath || path == cfg.ReadyPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged status is final.
				c.Error(err)
			}
			latency := time.Since(start)

			logRequest(c, log, cfg, latency, c.Response().Status, err)
			return err
		}
	}
}

func logRequest(c echo.Context, log logger.Logger, cfg LoggerConfig, latency time.Duration, status int, err error) {
	ctx := c.Request().Context()
	level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)

	event := createLogEvent(log.WithContext(ctx), level)
	if err != nil {
		event = event.Err(err)
	}

	method := c.Request().Method
	uri := c.Request().URL.Path
	stats := logger.QueryStatsFrom(ctx)
	event.
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("http.request.method", method).
		Int("http.response.status_code", status).
		Int64("http.server.request.duration", latency.Nanoseconds()).
		Str("url.path", uri).
		Str("http.route", c.Path()).
		Str("client.address", c.RealIP()).
		Str("user_agent.original", c.Request().UserAgent()).
		Str("result_code", resultCode).
		Int64("db_queries", stats.Count()).
		Int64("db_elapsed", int64(stats.Elapsed())).
		Msg(fmt.Sprintf("%s %s completed in %s with status %d", method, uri, latency, status))
}

// determineSeverity derives the log level and result_code from status, latency and error.
func determineSeverity(status int, latency, threshold time.Duration, err error) (level, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}
