package analytics

import "math"

// RollingWindow keeps the last windowSize response times in a ring buffer
// with an incrementally maintained sum, so Mean is O(1) per sample.
type RollingWindow struct {
	windowSize int
	values     []float64
	index      int
	count      int
	sum        float64
}

func NewRollingWindow(size int) *RollingWindow {
	return &RollingWindow{
		windowSize: size,
		values:     make([]float64, size),
	}
}

func (rw *RollingWindow) Add(value float64) {
	if rw.count < rw.windowSize {
		rw.count++
	} else {
		rw.sum -= rw.values[rw.index]
	}
	rw.values[rw.index] = value
	rw.sum += value
	rw.index = (rw.index + 1) % rw.windowSize
}

func (rw *RollingWindow) Mean() float64 {
	if rw.count == 0 {
		return 0.0
	}
	return rw.sum / float64(rw.count)
}

func (rw *RollingWindow) StdDev() float64 {
	if rw.count < 2 {
		return 0.0
	}

	mean := rw.Mean()
	var variance float64
	for _, v := range rw.values[:rw.count] {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(rw.count)
	return math.Sqrt(variance)
}

func (rw *RollingWindow) Count() int {
	return rw.count
}
