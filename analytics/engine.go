package analytics

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"latency-collector/cache"
	"latency-collector/models"

	log "github.com/sirupsen/logrus"
)

type SpikeCallback func(endpoint string)

type RejectCallback func(endpoint string)

type Engine struct {
	redisClient *cache.RedisClient
	aggregator  *Aggregator
	spikeDets   map[string]*SpikeDetector
	mu          sync.RWMutex
	sampleChan  chan models.Sample
	onSpike     SpikeCallback
	onReject    RejectCallback
	lastSummary int64 // unix nanos of the last Redis summary write
}

func NewEngine(redisClient *cache.RedisClient, timeout int, onSpike SpikeCallback, onReject RejectCallback) *Engine {
	engine := &Engine{
		redisClient: redisClient,
		aggregator:  NewAggregator(timeout),
		spikeDets:   make(map[string]*SpikeDetector),
		sampleChan:  make(chan models.Sample, 10000),
		onSpike:     onSpike,
		onReject:    onReject,
	}

	numWorkers := runtime.NumCPU() * 2
	if envWorkers := os.Getenv("COLLECTOR_WORKERS"); envWorkers != "" {
		if w, err := strconv.Atoi(envWorkers); err == nil && w > 0 {
			numWorkers = w
		}
	}

	if numWorkers < 4 {
		numWorkers = 4
	}
	if numWorkers > 16 {
		numWorkers = 16
	}
	log.Printf("Starting %d collector workers", numWorkers)
	for i := 0; i < numWorkers; i++ {
		go engine.drainSamples()
	}

	return engine
}

// Aggregator exposes the window state for the stats endpoints.
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}

func (e *Engine) Ingest(sample models.Sample) {
	select {
	case e.sampleChan <- sample:

	default:
		// Канал переполнен, логируем предупреждение
		log.Printf("WARNING: Sample channel is full, dropping sample from endpoint %s", sample.Endpoint)
	}
}

func (e *Engine) drainSamples() {
	for sample := range e.sampleChan {
		e.processSample(sample)
	}
}

func (e *Engine) processSample(sample models.Sample) {
	if err := e.aggregator.Record(sample.ResponseTimeMs); err != nil {
		if e.onReject != nil {
			e.onReject(sample.Endpoint)
		}
		return
	}

	isSpike, zScore := e.detectorFor(sample.Endpoint).Detect(sample.ResponseTimeMs)

	if isSpike {
		log.Printf("SPIKE DETECTED: endpoint=%s, response_time=%.0fms, z_score=%.2f",
			sample.Endpoint, sample.ResponseTimeMs, zScore)

		if e.onSpike != nil {
			e.onSpike(sample.Endpoint)
		}
	}

	e.maybeSaveSummary()
}

// maybeSaveSummary caches fresh window statistics in Redis at most once per
// second. The median scan walks the whole histogram domain, so running it for
// every sample would dominate ingestion at the expected rates.
func (e *Engine) maybeSaveSummary() {
	if e.redisClient == nil {
		return
	}

	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&e.lastSummary)
	if now-last < int64(time.Second) || !atomic.CompareAndSwapInt64(&e.lastSummary, last, now) {
		return
	}

	median, err := e.aggregator.Median()
	if err != nil {
		log.Errorf("CORRUPTED WINDOW: %v", err)
		return
	}

	summary := models.StatsSummary{
		AverageMs:  e.aggregator.Average(),
		MedianMs:   median,
		TotalCount: e.aggregator.TotalCount(),
		ErrorCount: e.aggregator.ErrorCount(),
		WindowDays: e.aggregator.WindowLen(),
		ComputedAt: time.Now(),
	}

	go func(s models.StatsSummary) {
		if err := e.redisClient.SaveSummary(s); err != nil {
			// log.Printf("ERROR: Failed to save summary: %v", err)
		}
	}(summary)
}

func (e *Engine) detectorFor(endpoint string) *SpikeDetector {
	e.mu.RLock()
	det, exists := e.spikeDets[endpoint]
	e.mu.RUnlock()

	if exists {
		return det
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if det, exists = e.spikeDets[endpoint]; !exists {
		det = NewSpikeDetector()
		e.spikeDets[endpoint] = det
	}
	return det
}
