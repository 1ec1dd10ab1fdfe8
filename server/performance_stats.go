package server

import (
	"github.com/labstack/echo/v4"

	"github.com/heritagehub/cms/logger"
)

// PerformanceStats returns middleware that attaches logger.QueryStats to each
// request context. The query gateway records into it and the request logger reports it.
func PerformanceStats() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logger.WithQueryStats(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
