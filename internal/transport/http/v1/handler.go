// Package v1 provides the version 1 HTTP handlers for the exchange.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	tokens   *auth.Issuer
	throttle echo.MiddlewareFunc
	logger   *zap.Logger
}

// NewHandler creates a new handler. throttle guards the unauthenticated
// write endpoints and may be nil.
func NewHandler(service *service.Service, tokens *auth.Issuer, throttle echo.MiddlewareFunc, logger *zap.Logger) *Handler {
	if throttle == nil {
		throttle = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return &Handler{
		service:  service,
		tokens:   tokens,
		throttle: throttle,
		logger:   logger.With(zap.String("component", "http")),
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Discovery API
	e.POST("/v1/discovery/search", h.SearchStructured)
	e.POST("/v1/discovery/intent", h.SearchIntent)

	// Agent API
	e.POST("/v1/agents/register", h.RegisterAgent, h.throttle)
	agentAuth := h.requireRole(auth.RoleAgent)
	e.POST("/v1/agents/handle", h.ClaimHandle, agentAuth)
	e.POST("/v1/agents/heartbeat", h.Heartbeat, agentAuth)
	e.GET("/v1/agents/:ref", h.GetAgent)

	// Admin API
	e.POST("/v1/admin/login", h.AdminLogin, h.throttle)
	adminAuth := h.requireRole(auth.RoleAdmin)
	e.GET("/v1/admin/agents", h.AdminListAgents, adminAuth)
	e.GET("/v1/admin/agents/:agent_id", h.AdminGetAgent, adminAuth)
	e.PUT("/v1/admin/agents/:agent_id/status", h.AdminSetAgentStatus, adminAuth)
	e.DELETE("/v1/admin/agents/:agent_id", h.AdminDeleteAgent, adminAuth)
	e.GET("/v1/admin/registration", h.GetRegistrationConfig, adminAuth)
	e.PUT("/v1/admin/registration", h.UpdateRegistrationConfig, adminAuth)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
