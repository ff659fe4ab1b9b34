package middleware

import (
	"time"

	applogger "FinEnrich/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one structured line per request. 5xx responses log at error level.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeOf(c)),
				applogger.Int("status", status),
				applogger.String("remote", c.RealIP()),
				applogger.Int64("bytes", c.Response().Size),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if status >= 500 {
				l.Error("http request failed", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
