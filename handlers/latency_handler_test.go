package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"latency-collector/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHandler builds a handler without Redis; the engine skips summary
// writes when no client is configured.
func newTestHandler() *LatencyHandler {
	return NewLatencyHandler(nil, 0)
}

func postSample(t *testing.T, h *LatencyHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/latency", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleSample(w, req)
	return w
}

func TestHandleSampleAccepted(t *testing.T) {
	h := newTestHandler()

	w := postSample(t, h, `{"timestamp":"2026-08-30T12:00:00Z","endpoint":"/api/orders","response_time_ms":120}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "/api/orders", resp["endpoint"])

	require.Eventually(t, func() bool {
		return h.engine.Aggregator().TotalCount() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestHandleSampleBadJSON(t *testing.T) {
	h := newTestHandler()

	w := postSample(t, h, `{"response_time_ms":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Non-numeric response times never reach the aggregator.
	w = postSample(t, h, `{"timestamp":"2026-08-30T12:00:00Z","endpoint":"/api/orders","response_time_ms":"fast"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, h.engine.Aggregator().TotalCount())
}

func TestHandleSampleMissingEnvelope(t *testing.T) {
	h := newTestHandler()

	w := postSample(t, h, `{"timestamp":"2026-08-30T12:00:00Z","response_time_ms":120}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint is required")
}

func TestHandleSampleOutOfRangeIsCounted(t *testing.T) {
	h := newTestHandler()

	// Out-of-range values pass the envelope check; the aggregator rejects
	// and counts them.
	w := postSample(t, h, `{"timestamp":"2026-08-30T12:00:00Z","endpoint":"/api/orders","response_time_ms":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return h.engine.Aggregator().ErrorCount() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.engine.Aggregator().TotalCount())
}

func TestHandleStats(t *testing.T) {
	h := newTestHandler()

	for _, body := range []string{
		`{"timestamp":"2026-08-30T12:00:00Z","endpoint":"/api/orders","response_time_ms":10}`,
		`{"timestamp":"2026-08-30T12:00:01Z","endpoint":"/api/orders","response_time_ms":100}`,
	} {
		require.Equal(t, http.StatusOK, postSample(t, h, body).Code)
	}

	require.Eventually(t, func() bool {
		return h.engine.Aggregator().TotalCount() == 2
	}, 5*time.Second, 10*time.Millisecond)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary models.StatsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 55, summary.AverageMs)
	assert.Equal(t, 55.0, summary.MedianMs)
	assert.Equal(t, 2, summary.TotalCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Equal(t, 1, summary.WindowDays)
}

func TestHandleStatsEmpty(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary models.StatsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.AverageMs)
	assert.Equal(t, 0.0, summary.MedianMs)
	assert.Equal(t, 0, summary.TotalCount)
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	HealthCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
