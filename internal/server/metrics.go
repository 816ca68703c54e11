package server

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/coingecko-gateway/pkg/metrics"
)

// httpRequestsTotal tracks served requests by route template and status
var httpRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_http_requests_total",
		Help: "Total number of HTTP requests served",
	},
	[]string{"route", "code"},
)

func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

			return err
		}
	}
}
