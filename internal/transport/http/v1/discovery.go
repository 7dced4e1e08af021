package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// SearchStructured runs a structured discovery query.
// POST /v1/discovery/search
func (h *Handler) SearchStructured(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.StructuredSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.SearchStructured(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SearchIntent runs a free-text discovery query.
// POST /v1/discovery/intent
func (h *Handler) SearchIntent(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.IntentSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.SearchIntent(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
