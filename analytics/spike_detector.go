package analytics

import (
	"math"
	"sync"
)

// SpikeDetector flags response times that deviate from the recent norm for
// one endpoint. It looks at a short window of the latest samples, separate
// from the 7-day statistics window, since a spike is only meaningful against
// current behavior.
type SpikeDetector struct {
	mu        sync.Mutex
	window    *RollingWindow
	threshold float64
}

func NewSpikeDetector() *SpikeDetector {
	return &SpikeDetector{
		window:    NewRollingWindow(50),
		threshold: 2.0, // 2σ
	}
}

func (sd *SpikeDetector) Detect(responseTime float64) (bool, float64) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.window.Add(responseTime)

	stdDev := sd.window.StdDev()
	if stdDev == 0 {
		return false, 0.0
	}

	zScore := math.Abs((responseTime - sd.window.Mean()) / stdDev)
	return zScore > sd.threshold, zScore
}
