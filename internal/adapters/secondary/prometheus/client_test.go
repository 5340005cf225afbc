package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-registry-service/internal/config"
	"model-registry-service/internal/core/domain"
	ports "model-registry-service/internal/core/ports/output"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) ports.PrometheusClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPrometheusClient(&config.PrometheusConfig{Enabled: true, URL: srv.URL + "/", Timeout: time.Second})
}

func testRange() ports.TimeRange {
	end := time.Unix(1700003600, 0)
	return ports.TimeRange{Start: end.Add(-time.Hour), End: end, Step: time.Minute}
}

func TestPrometheusClient_QueryRequestRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query_range", r.URL.Path)
		q := r.URL.Query()
		assert.Contains(t, q.Get("query"), `revision_name=~"fraud-prod.*"`)
		assert.Equal(t, "1700000000", q.Get("start"))
		assert.Equal(t, "1700003600", q.Get("end"))
		assert.Equal(t, "60", q.Get("step"))
		_, _ = io.WriteString(w, `{"status": "success", "data": {"resultType": "matrix", "result": [
			{"metric": {}, "values": [[1700000000, "1.5"], [1700000060, "12.5"], [1700000120, "NaN?"]]}
		]}}`)
	})

	points, err := c.QueryRequestRate(context.Background(), "fraud-prod", testRange())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 12.5, points[1].Value)
	assert.Equal(t, time.Unix(1700000060, 0), points[1].Timestamp)
}

func TestRevisionPattern(t *testing.T) {
	assert.Equal(t, `fraud-prod.*`, revisionPattern("fraud-prod"))
	assert.Equal(t, `fraud\\.v2.*`, revisionPattern("fraud.v2"))
}

func TestPrometheusClient_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "success", "data": {"resultType": "matrix", "result": []}}`)
	})

	points, err := c.QueryLatencyP99(context.Background(), "fraud-prod", testRange())
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestPrometheusClient_QueryError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status": "error", "errorType": "bad_data", "error": "parse error"}`)
	})

	_, err := c.QueryErrorRate(context.Background(), "fraud-prod", testRange())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMetricsQueryFailed)
	assert.Contains(t, err.Error(), "parse error")
}

func TestPrometheusClient_NonJSONResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})

	_, err := c.QueryRequestRate(context.Background(), "fraud-prod", testRange())
	assert.ErrorIs(t, err, domain.ErrMetricsQueryFailed)
}

func TestPrometheusClient_IsAvailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/-/healthy", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.True(t, c.IsAvailable())
}

func TestPrometheusClient_Disabled(t *testing.T) {
	c := NewPrometheusClient(&config.PrometheusConfig{Enabled: false})
	assert.False(t, c.IsAvailable())

	points, err := c.QueryRequestRate(context.Background(), "fraud-prod", testRange())
	require.NoError(t, err)
	assert.Nil(t, points)
}
