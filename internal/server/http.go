// Package server exposes the gateway operations over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/coingecko-gateway/pkg/metrics"
	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// PriceService is the market-data capability served over HTTP.
// *gateway.Service satisfies it.
type PriceService interface {
	Search(ctx context.Context, query string) ([]price.Coin, error)
	SearchTrending(ctx context.Context) ([]price.TrendingCoin, error)
	GetPriceChart(ctx context.Context, coinID string, interval price.Interval) (price.Chart, error)
	GetPriceOHLC(ctx context.Context, coinID string, interval price.Interval) (price.OHLCPrice, error)
}

// Server wraps the Echo server.
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// New creates the HTTP server and registers its routes.
func New(svc PriceService, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := NewHandler(svc)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(requestMetrics())

	// Public routes
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// API routes
	api := e.Group("/api")
	api.GET("/search", handler.Search)
	api.GET("/search/trending", handler.SearchTrending)
	api.GET("/coins/:coinId/chart", handler.PriceChart)
	api.GET("/coins/:coinId/ohlc", handler.PriceOHLC)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements http.Handler so the server can be used with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Status >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			if v.Error != nil {
				event = event.Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status_code", v.Status).
				Dur("duration", v.Latency).
				Str("request_id", v.RequestID).
				Msg("Request served")
			return nil
		},
	})
}
