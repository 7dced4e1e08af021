package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// AdminLogin exchanges the operator password for an admin token.
// POST /v1/admin/login
func (h *Handler) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.AdminLogin(ctx, req.Password)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminListAgents lists all agents, newest first.
// GET /v1/admin/agents
func (h *Handler) AdminListAgents(c echo.Context) error {
	items, err := h.service.ListAgents(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// AdminGetAgent gets any agent, whatever its status.
// GET /v1/admin/agents/:agent_id
func (h *Handler) AdminGetAgent(c echo.Context) error {
	summary, err := h.service.GetAgent(c.Request().Context(), c.Param("agent_id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// AdminSetAgentStatus changes an agent's status.
// PUT /v1/admin/agents/:agent_id/status
func (h *Handler) AdminSetAgentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.SetAgentStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	agentID := c.Param("agent_id")
	if err := h.service.SetAgentStatus(ctx, agentID, req.Status); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":     agentID,
		"status": req.Status,
	})
}

// AdminDeleteAgent deletes an agent.
// DELETE /v1/admin/agents/:agent_id
func (h *Handler) AdminDeleteAgent(c echo.Context) error {
	if err := h.service.DeleteAgent(c.Request().Context(), c.Param("agent_id")); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// GetRegistrationConfig returns the registration mode.
// GET /v1/admin/registration
func (h *Handler) GetRegistrationConfig(c echo.Context) error {
	resp, err := h.service.GetRegistrationConfig(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateRegistrationConfig changes the registration mode.
// PUT /v1/admin/registration
func (h *Handler) UpdateRegistrationConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.RegistrationConfigRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	resp, err := h.service.SetRegistrationConfig(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
