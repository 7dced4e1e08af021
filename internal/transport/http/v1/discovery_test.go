package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/exchange/internal/adapter/intent"
	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/tests/helpers"
)

func TestSearchStructured(t *testing.T) {
	e, _, db := newTestServer(t)

	helpers.SeedAgent(t, db, "Luigi's", &domain.AgentMetadata{
		Business: &domain.Business{Cuisines: []string{"Italian"}},
	}, "reservation.make")
	helpers.SeedAgent(t, db, "Taco Town", &domain.AgentMetadata{
		Business: &domain.Business{Cuisines: []string{"mexican"}},
	}, "reservation.make")

	rec := doJSON(e, http.MethodPost, "/v1/discovery/search", `{"capability":"reservation.make","cuisine":"italian","limit":500}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.StructuredSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 100, resp.Filters.Limit)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Luigi's", resp.Items[0].DisplayName)
}

func TestSearchStructuredResponseShape(t *testing.T) {
	e, _, db := newTestServer(t)
	agent := helpers.SeedAgent(t, db, "Bare", nil)

	rec := doJSON(e, http.MethodPost, "/v1/discovery/search", `{}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Count int               `json:"count"`
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Equal(t, 1, raw.Count)

	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(raw.Items[0], &item))
	assert.Equal(t, agent.AgentID, item["exchangeAgentId"])
	assert.Nil(t, item["handle"])
	assert.Nil(t, item["publicUrl"])
	assert.Equal(t, []interface{}{}, item["capabilities"])

	md := item["metadata"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, md["tags"])
	assert.Nil(t, md["geo"])
	assert.Equal(t, map[string]interface{}{}, md["extra"])
	assert.Equal(t, map[string]interface{}{"cuisines": []interface{}{}, "serviceArea": nil}, md["business"])
}

func TestSearchStructuredValidation(t *testing.T) {
	e, _, _ := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"radius too small", `{"geo":{"lat":0,"lng":0,"radiusKm":0.01}}`, "geo.radiusKm"},
		{"radius too large", `{"geo":{"lat":0,"lng":0,"radiusKm":1001}}`, "geo.radiusKm"},
		{"lat out of range", `{"geo":{"lat":-91,"lng":0,"radiusKm":5}}`, "geo.lat"},
		{"lng out of range", `{"geo":{"lat":0,"lng":181,"radiusKm":5}}`, "geo.lng"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/v1/discovery/search", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.field, body["field"])
		})
	}

	rec := doJSON(e, http.MethodPost, "/v1/discovery/search", `{"limit":"many"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchIntent(t *testing.T) {
	e, _, db := newTestServer(t)
	helpers.SeedAgent(t, db, "Luigi's", &domain.AgentMetadata{
		Geo:      &domain.Geo{Lat: 40.7310, Lng: -73.9360},
		Business: &domain.Business{Cuisines: []string{"italian"}},
	}, "reservation.make")

	body := `{"query":"book an italian restaurant near me","requesterContext":{"geo":{"lat":40.7306,"lng":-73.9352}}}`
	rec := doJSON(e, http.MethodPost, "/v1/discovery/intent", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.IntentSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "book an italian restaurant near me", resp.OriginalQuery)
	assert.Equal(t, "reservation.make", resp.InterpretedFilters.Capability)
	assert.Equal(t, "italian", resp.InterpretedFilters.Cuisine)
	require.NotNil(t, resp.InterpretedFilters.Geo)
	assert.Equal(t, 10.0, resp.InterpretedFilters.Geo.RadiusKm)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t,
		"Matched active assistant profile; capability=reservation.make; cuisine=italian; geo within 10km",
		resp.Items[0].Explanation)
}

func TestSearchIntentNotImplemented(t *testing.T) {
	h, _ := newTestHandler(t, intent.NewUnavailableTranslator(intent.ProviderOpenAI), nil)
	e := echo.New()
	h.RegisterRoutes(e)

	rec := doJSON(e, http.MethodPost, "/v1/discovery/intent", `{"query":"book italian"}`, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, rec.Body.String(), "not implemented")
}
