package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// RegisterAgent registers a new agent.
// POST /v1/agents/register
func (h *Handler) RegisterAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.RegisterAgentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.RegisterAgent(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	if resp.AlreadyRegistered {
		return c.JSON(http.StatusOK, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

// ClaimHandle claims a handle for the calling agent.
// POST /v1/agents/handle
func (h *Handler) ClaimHandle(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ClaimHandleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.ClaimHandle(ctx, subject(c), req.Handle)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Heartbeat records that the calling agent is alive.
// POST /v1/agents/heartbeat
func (h *Handler) Heartbeat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.HeartbeatRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c)
		}
	}

	if err := h.service.Heartbeat(ctx, subject(c), req); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// GetAgent gets an agent by ID, or by handle when ref starts with "@".
// GET /v1/agents/:ref
func (h *Handler) GetAgent(c echo.Context) error {
	ctx := c.Request().Context()
	ref := c.Param("ref")

	var (
		summary *domain.AgentSummary
		err     error
	)
	if strings.HasPrefix(ref, "@") {
		summary, err = h.service.GetAgentByHandle(ctx, ref)
	} else {
		summary, err = h.service.GetAgent(ctx, ref)
	}
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
