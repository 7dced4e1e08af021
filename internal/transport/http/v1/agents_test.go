package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/exchange/internal/adapter/intent"
	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/config"
	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
	"github.com/xiaot623/gogo/exchange/internal/repository"
	"github.com/xiaot623/gogo/exchange/internal/service"
	"github.com/xiaot623/gogo/exchange/policy"
	"github.com/xiaot623/gogo/exchange/tests/helpers"
)

const testAdminPassword = "s3cret"

func newTestHandler(t *testing.T, translator intent.Translator, throttle echo.MiddlewareFunc) (*Handler, store.Store) {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.AdminPassword = testAdminPassword
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if translator == nil {
		translator = intent.NewRuleTranslator()
	}
	tokens := auth.NewIssuer("test-secret", time.Minute)
	svc, err := service.New(db, translator, tokens, policyEngine, metrics.NewCollector("test", zap.NewNop()), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	return NewHandler(svc, tokens, throttle, zap.NewNop()), db
}

func newTestServer(t *testing.T) (*echo.Echo, *Handler, store.Store) {
	t.Helper()
	h, db := newTestHandler(t, nil, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h, db
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{
	"displayName": "Luigi's",
	"agentType": "entity",
	"publicUrl": "https://luigis.example.com",
	"capabilities": [{"name": "reservation.make", "actions": ["create"]}],
	"metadata": {
		"tags": ["vegan"],
		"geo": {"lat": 40.7306, "lng": -73.9352},
		"business": {"cuisines": ["italian"]},
		"extra": {"tier": "gold"}
	}
}`

func registerAgent(t *testing.T, e *echo.Echo) domain.RegisterAgentResponse {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/agents/register", registerBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.RegisterAgentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAgentValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/agents/register", bytes.NewBufferString(`{"displayName":"demo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "agentType", body["field"])
}

func TestRegisterAgentMalformedBody(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/v1/agents/register", `{"displayName":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAgentSuccess(t *testing.T) {
	e, _, db := newTestServer(t)

	resp := registerAgent(t, e)
	assert.NotEmpty(t, resp.AccessToken)

	got, err := db.GetAgent(context.Background(), resp.AgentID)
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if got == nil || got.PublicURL != "https://luigis.example.com" {
		t.Fatalf("unexpected agent: %+v", got)
	}

	// Same public URL again is acknowledged, not duplicated.
	rec := doJSON(e, http.MethodPost, "/v1/agents/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var again domain.RegisterAgentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.True(t, again.AlreadyRegistered)
	assert.Equal(t, resp.AgentID, again.AgentID)
}

func TestClaimHandleRequiresAgentToken(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/agents/handle", `{"handle":"luigis"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/agents/handle", `{"handle":"luigis"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimHandleAndLookup(t *testing.T) {
	e, _, _ := newTestServer(t)
	reg := registerAgent(t, e)

	rec := doJSON(e, http.MethodPost, "/v1/agents/handle", `{"handle":"luigis"}`, reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"exchangeAgentId":"`+reg.AgentID+`","handle":"luigis"}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/v1/agents/@luigis", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.AgentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, reg.AgentID, summary.AgentID)
	require.NotNil(t, summary.Handle)
	assert.Equal(t, "@luigis", *summary.Handle)
	assert.JSONEq(t, `{"tier":"gold"}`, string(summary.Metadata.Extra))

	rec = doJSON(e, http.MethodGet, "/v1/agents/"+reg.AgentID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/agents/@nobody", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/agents/unknown-id", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClaimHandleConflict(t *testing.T) {
	e, _, _ := newTestServer(t)
	first := registerAgent(t, e)

	second := doJSON(e, http.MethodPost, "/v1/agents/register",
		`{"displayName":"Mario's","agentType":"entity","capabilities":[{"name":"menu.read"}]}`, "")
	require.Equal(t, http.StatusCreated, second.Code)
	var reg domain.RegisterAgentResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &reg))

	rec := doJSON(e, http.MethodPost, "/v1/agents/handle", `{"handle":"luigis"}`, first.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodPost, "/v1/agents/handle", `{"handle":"luigis"}`, reg.AccessToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHeartbeat(t *testing.T) {
	e, _, db := newTestServer(t)
	reg := registerAgent(t, e)

	rec := doJSON(e, http.MethodPost, "/v1/agents/heartbeat", "", reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/v1/agents/heartbeat", `{"publicUrl":"http://localhost:9000"}`, reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := db.GetAgent(context.Background(), reg.AgentID)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got.PublicURL)
}

func TestRegisterRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h, _ := newTestHandler(t, nil, RateLimiter(ctx, 2, 2, zap.NewNop()))
	e := echo.New()
	h.RegisterRoutes(e)

	body := `{"displayName":"Agent","agentType":"personal","capabilities":[{"name":"chat"}]}`
	for i := 0; i < 2; i++ {
		rec := doJSON(e, http.MethodPost, "/v1/agents/register", body, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/v1/agents/register", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Discovery is not throttled.
	rec = doJSON(e, http.MethodPost, "/v1/discovery/search", `{}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
