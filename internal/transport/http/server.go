// Package http provides the HTTP server implementation for the exchange.
package http

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
	"github.com/xiaot623/gogo/exchange/internal/service"
	v1 "github.com/xiaot623/gogo/exchange/internal/transport/http/v1"
)

// Options configures the HTTP server.
type Options struct {
	// RegisterRatePerMin caps registration and admin login attempts per client IP.
	RegisterRatePerMin int
}

// NewServer creates and configures the public HTTP server. Background work
// started for the server stops when ctx is done.
func NewServer(ctx context.Context, svc *service.Service, tokens *auth.Issuer, collector *metrics.Collector, logger *zap.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(collector, logger)))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	var throttle echo.MiddlewareFunc
	if opts.RegisterRatePerMin > 0 {
		throttle = v1.RateLimiter(ctx, opts.RegisterRatePerMin, opts.RegisterRatePerMin, logger)
	}
	v1Handler := v1.NewHandler(svc, tokens, throttle, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))

	return e
}

func requestLoggerConfig(collector *metrics.Collector, logger *zap.Logger) middleware.RequestLoggerConfig {
	logger = logger.With(zap.String("component", "http"))
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			collector.RecordHTTPRequest(v.Method, path, v.Status, v.Latency)

			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}
}
