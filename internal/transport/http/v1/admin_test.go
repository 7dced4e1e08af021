package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

func adminToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/admin/login", `{"password":"`+testAdminPassword+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/v1/admin/login", `{"password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	e, _, _ := newTestServer(t)
	reg := registerAgent(t, e)

	rec := doJSON(e, http.MethodGet, "/v1/admin/agents", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// An agent token is not an admin token.
	rec = doJSON(e, http.MethodGet, "/v1/admin/agents", "", reg.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAgentLifecycle(t *testing.T) {
	e, _, _ := newTestServer(t)
	reg := registerAgent(t, e)
	token := adminToken(t, e)

	rec := doJSON(e, http.MethodGet, "/v1/admin/agents", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.AgentListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, reg.AgentID, items[0].ID)
	assert.Equal(t, 1, items[0].CapabilitiesCount)

	rec = doJSON(e, http.MethodPut, "/v1/admin/agents/"+reg.AgentID+"/status", `{"status":"revoked"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/v1/discovery/search", `{}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	rec = doJSON(e, http.MethodGet, "/v1/admin/agents/"+reg.AgentID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"revoked"`)

	rec = doJSON(e, http.MethodPut, "/v1/admin/agents/"+reg.AgentID+"/status", `{"status":"gone"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/v1/admin/agents/"+reg.AgentID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/v1/admin/agents/"+reg.AgentID, "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRegistrationConfig(t *testing.T) {
	e, _, _ := newTestServer(t)
	token := adminToken(t, e)

	rec := doJSON(e, http.MethodGet, "/v1/admin/registration", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registrationMode":"open"`)

	rec = doJSON(e, http.MethodPut, "/v1/admin/registration", `{"registrationMode":"code_required","registrationCode":"letmein"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"codeConfigured":true`)

	body := `{"displayName":"Agent","agentType":"personal","capabilities":[{"name":"chat"}]}`
	rec = doJSON(e, http.MethodPost, "/v1/agents/register", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	withCode := `{"registrationCode":"letmein","displayName":"Agent","agentType":"personal","capabilities":[{"name":"chat"}]}`
	rec = doJSON(e, http.MethodPost, "/v1/agents/register", withCode, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}
