package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Sternrassler/coingecko-gateway/pkg/client"
	"github.com/Sternrassler/coingecko-gateway/pkg/price"
)

// Handler serves the API routes.
type Handler struct {
	svc PriceService
}

// NewHandler creates a handler on top of svc.
func NewHandler(svc PriceService) *Handler {
	return &Handler{svc: svc}
}

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Error string `json:"error"`
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Search handles GET /api/search?query=.
func (h *Handler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return badRequest(c, "query parameter is required")
	}

	coins, err := h.svc.Search(c.Request().Context(), query)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, coins)
}

// SearchTrending handles GET /api/search/trending.
func (h *Handler) SearchTrending(c echo.Context) error {
	coins, err := h.svc.SearchTrending(c.Request().Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, coins)
}

// PriceChart handles GET /api/coins/:coinId/chart?interval=.
func (h *Handler) PriceChart(c echo.Context) error {
	coinID, interval, problem := coinParams(c)
	if problem != "" {
		return badRequest(c, problem)
	}

	chart, err := h.svc.GetPriceChart(c.Request().Context(), coinID, interval)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, chart)
}

// PriceOHLC handles GET /api/coins/:coinId/ohlc?interval=.
func (h *Handler) PriceOHLC(c echo.Context) error {
	coinID, interval, problem := coinParams(c)
	if problem != "" {
		return badRequest(c, problem)
	}

	candles, err := h.svc.GetPriceOHLC(c.Request().Context(), coinID, interval)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, candles)
}

// coinParams reads the coin id and interval. A non-empty problem describes
// why the request is invalid.
func coinParams(c echo.Context) (coinID string, interval price.Interval, problem string) {
	coinID = strings.TrimSpace(c.Param("coinId"))
	if coinID == "" {
		return "", 0, "coin id is required"
	}

	interval, err := price.ParseInterval(c.QueryParam("interval"))
	if err != nil {
		return "", 0, err.Error()
	}
	return coinID, interval, ""
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// upstreamError writes the response for a failed operation.
func upstreamError(c echo.Context, err error) error {
	status, msg := StatusFor(c.Request().Context(), err)
	return c.JSON(status, errorResponse{Error: msg})
}

// StatusFor maps an operation error to the HTTP status and message returned
// to the caller.
func StatusFor(ctx context.Context, err error) (int, string) {
	switch {
	case errors.Is(err, client.ErrContextCancelled), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return http.StatusServiceUnavailable, "request cancelled"
	}

	switch client.StatusCode(err) {
	case http.StatusNotFound:
		return http.StatusNotFound, "coin not found"
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "upstream rate limit exceeded"
	}
	return http.StatusBadGateway, "upstream request failed"
}
