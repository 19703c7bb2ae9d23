package analytics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"latency-collector/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSample(endpoint string, responseTime float64) models.Sample {
	return models.Sample{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Endpoint:       endpoint,
		ResponseTimeMs: responseTime,
	}
}

func TestEngineIngestsThroughWorkerPool(t *testing.T) {
	e := NewEngine(nil, 0, nil, nil)

	const n = 500
	for i := 0; i < n; i++ {
		e.Ingest(testSample("/api/orders", float64(1+i%300)))
	}

	require.Eventually(t, func() bool {
		return e.Aggregator().TotalCount() == n
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEngineCountsRejectedSamples(t *testing.T) {
	var rejected int64
	onReject := func(string) { atomic.AddInt64(&rejected, 1) }

	e := NewEngine(nil, 0, nil, onReject)

	e.Ingest(testSample("/api/orders", 0))
	e.Ingest(testSample("/api/orders", DefaultTimeout))
	e.Ingest(testSample("/api/orders", 150))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&rejected) == 2 && e.Aggregator().TotalCount() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, e.Aggregator().ErrorCount())
}

func TestEngineDetectsSpikePerEndpoint(t *testing.T) {
	spiked := make(chan string, 1)
	onSpike := func(endpoint string) {
		select {
		case spiked <- endpoint:
		default:
		}
	}

	e := NewEngine(nil, 0, onSpike, nil)

	// A steady baseline on one endpoint, then an outlier on it. The second
	// endpoint stays quiet the whole time.
	for i := 0; i < 40; i++ {
		e.Ingest(testSample("/api/orders", 100+float64(i%3)))
		e.Ingest(testSample("/api/users", 50))
	}
	require.Eventually(t, func() bool {
		return e.Aggregator().TotalCount() == 80
	}, 5*time.Second, 10*time.Millisecond)

	e.Ingest(testSample("/api/orders", 9000))

	select {
	case endpoint := <-spiked:
		assert.Equal(t, "/api/orders", endpoint)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a spike callback")
	}
}

func TestEngineStatsMatchDirectRecording(t *testing.T) {
	e := NewEngine(nil, 0, nil, nil)
	direct := NewAggregator(0)

	values := []float64{1, 10, 100, 250, 250, 3000}
	for i, v := range values {
		e.Ingest(testSample(fmt.Sprintf("/api/ep-%d", i%2), v))
		require.NoError(t, direct.Record(v))
	}

	require.Eventually(t, func() bool {
		return e.Aggregator().TotalCount() == len(values)
	}, 5*time.Second, 10*time.Millisecond)

	wantMedian, err := direct.Median()
	require.NoError(t, err)
	gotMedian, err := e.Aggregator().Median()
	require.NoError(t, err)

	assert.Equal(t, wantMedian, gotMedian)
	assert.Equal(t, direct.Average(), e.Aggregator().Average())
}
