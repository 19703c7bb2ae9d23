package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"latency-collector/analytics"
	"latency-collector/cache"
	"latency-collector/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	samplesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samples_rejected_total",
			Help: "Total number of latency samples rejected by validation",
		},
		[]string{"endpoint"},
	)

	spikesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spikes_detected_total",
			Help: "Total number of latency spikes detected",
		},
		[]string{"endpoint"},
	)
)

type LatencyHandler struct {
	redisClient *cache.RedisClient
	engine      *analytics.Engine
}

func NewLatencyHandler(redisClient *cache.RedisClient, timeout int) *LatencyHandler {

	onSpike := func(endpoint string) {
		spikesDetectedTotal.WithLabelValues(endpoint).Inc()
	}
	onReject := func(endpoint string) {
		samplesRejectedTotal.WithLabelValues(endpoint).Inc()
	}

	return &LatencyHandler{
		redisClient: redisClient,
		engine:      analytics.NewEngine(redisClient, timeout, onSpike, onReject),
	}
}

func (h *LatencyHandler) HandleSample(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		duration := time.Since(start).Seconds()
		requestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	}()

	var sample models.Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := sample.Validate(); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.engine.Ingest(sample)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":   "accepted",
		"endpoint": sample.Endpoint,
	})

	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleStats computes the current window statistics directly from the
// aggregator.
func (h *LatencyHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	agg := h.engine.Aggregator()

	median, err := agg.Median()
	if err != nil {
		if errors.Is(err, analytics.ErrWindowInconsistent) {
			log.Errorf("CORRUPTED WINDOW: %v", err)
		}
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "500").Inc()
		http.Error(w, "Failed to compute statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	summary := models.StatsSummary{
		AverageMs:  agg.Average(),
		MedianMs:   median,
		TotalCount: agg.TotalCount(),
		ErrorCount: agg.ErrorCount(),
		WindowDays: agg.WindowLen(),
		ComputedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)

	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleSummary serves the last summary cached in Redis.
func (h *LatencyHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.redisClient.GetSummary()
	if err != nil {
		http.Error(w, "Failed to get summary: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
