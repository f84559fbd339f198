package gateway

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/udhos/backoffice/config"
)

// NewEcho creates the HTTP server with the common middlewares, the health
// check and the version endpoint.
func NewEcho(cfg config.ServerConfig) *echo.Echo {
	e := echo.New()
	// The banner and the port do not respect the logger formatting
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}), middleware.RemoveTrailingSlash())
	e.Use(requestLogger(), middleware.Recover())

	if cfg.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(cfg.RateLimits.Rate),
					Burst:     cfg.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		))
	}
	if len(cfg.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowOrigin}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	version := ""
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
