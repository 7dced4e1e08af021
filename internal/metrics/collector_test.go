package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectorRecordSearch(t *testing.T) {
	c := NewCollector("exchange", zap.NewNop())

	c.RecordSearch(ModeStructured, "ok", 12, 3, 5*time.Millisecond)
	c.RecordSearch(ModeStructured, "ok", 4, 0, time.Millisecond)
	c.RecordSearch(ModeIntent, "not_implemented", 0, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.searchesTotal.WithLabelValues(ModeStructured, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.searchesTotal.WithLabelValues(ModeIntent, "not_implemented")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.searchResults))
}

func TestCollectorsAreIndependent(t *testing.T) {
	// Each collector owns a registry, so two can share a namespace.
	a := NewCollector("exchange", zap.NewNop())
	b := NewCollector("exchange", zap.NewNop())

	a.RecordRegistration("created")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.registrationsTotal.WithLabelValues("created")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.registrationsTotal.WithLabelValues("created")))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("exchange", zap.NewNop())
	c.RecordHTTPRequest("POST", "/v1/discovery/search", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `exchange_http_requests_total{method="POST",path="/v1/discovery/search",status="200"} 1`)
}
