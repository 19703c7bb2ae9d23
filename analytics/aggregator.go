package analytics

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds valid response times (in ms): a request that ran
	// this long was cut off, so the value can never legitimately appear in
	// the stream. It also fixes the histogram domain.
	DefaultTimeout = 19000

	// WindowDays is the trailing retention period, in day buckets.
	WindowDays = 7

	dateLayout = "2006-01-02"
)

// Aggregator maintains rolling average and median response times over a
// trailing 7-day window of per-day buckets, without keeping raw samples.
// Memory is bounded by WindowDays buckets of timeout-sized histograms no
// matter the request volume.
//
// All methods are safe for concurrent use; the internal mutex is the
// serialization boundary for the engine's worker pool.
type Aggregator struct {
	mu         sync.Mutex
	timeout    int
	window     []*DayBucket // newest first
	totalCount int
}

func NewAggregator(timeout int) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		timeout: timeout,
		window:  []*DayBucket{NewDayBucket(today(), timeout)},
	}
}

func today() string {
	return time.Now().Format(dateLayout)
}

// Record ingests one response-time sample. Valid samples are whole numbers in
// [1, timeout); anything else (zero, negative, fractional, NaN, Inf, at or
// past the timeout) increments the current day's error counter and returns
// ErrInvalidSample with no other state change. In particular a rejected
// sample never triggers day rotation.
func (a *Aggregator) Record(value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !(value == math.Trunc(value) && value > 0 && value < float64(a.timeout)) {
		a.window[0].ErrorCount++
		return ErrInvalidSample
	}

	a.rotate()
	a.totalCount++
	a.window[0].observe(value)
	return nil
}

// rotate prepends a fresh bucket when the calendar day has changed since the
// last accepted sample, evicting the oldest bucket once the window is full.
// Days with no accepted traffic get no bucket at all.
func (a *Aggregator) rotate() {
	day := today()
	if a.window[0].Date == day {
		return
	}
	if len(a.window) == WindowDays {
		evicted := a.window[len(a.window)-1]
		a.totalCount -= evicted.Count
		a.window = a.window[:len(a.window)-1]
	}
	a.window = append([]*DayBucket{NewDayBucket(day, a.timeout)}, a.window...)
}

// Average returns the arithmetic mean of the per-day means across the window,
// rounded to the nearest integer (half away from zero). Each day weighs the
// same regardless of its sample count; that is the contract, not a sampling
// bug, so it is not a value-weighted mean.
func (a *Aggregator) Average() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sum float64
	for _, b := range a.window {
		sum += b.RunningMean
	}
	return int(math.Round(sum / float64(len(a.window))))
}

// Median returns the exact median across every sample retained in the window.
// Per-day histograms are merged and scanned in ascending value order until
// the cumulative occurrence count covers the target rank, so the cost is
// bounded by the timeout domain rather than the number of samples. For an
// even count whose middle ranks fall on two distinct values the result is
// their midpoint, a half-integer.
//
// The only failure mode is ErrWindowInconsistent: the scan ran off the end of
// the histogram, meaning totalCount has drifted from the true contents.
func (a *Aggregator) Median() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.totalCount
	if n == 0 {
		return 0, nil
	}

	merged := make([]uint32, a.timeout)
	for _, b := range a.window {
		for v, c := range b.Histogram {
			merged[v] += c
		}
	}

	target := n/2 + 1
	if n%2 == 1 {
		target = (n + 1) / 2
	}

	cumulative, prev := 0, 0
	for v := 1; v < a.timeout; v++ {
		c := int(merged[v])
		if c == 0 {
			continue
		}
		cumulative += c
		if cumulative < target {
			prev = v
			continue
		}
		jump := cumulative - target
		if n%2 == 1 || c > jump+1 {
			// Odd count, or both middle ranks land inside this value's run.
			return float64(v), nil
		}
		return (float64(v) + float64(prev)) / 2, nil
	}
	return 0, ErrWindowInconsistent
}

// TotalCount returns the number of accepted samples currently in the window.
func (a *Aggregator) TotalCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalCount
}

// ErrorCount returns the rejected-sample count for the current day's bucket.
func (a *Aggregator) ErrorCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window[0].ErrorCount
}

// WindowLen returns how many day buckets currently populate the window.
func (a *Aggregator) WindowLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.window)
}

func (a *Aggregator) Timeout() int {
	return a.timeout
}

// Snapshot returns a deep copy of the window contents, newest first.
func (a *Aggregator) Snapshot() []DayBucket {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]DayBucket, len(a.window))
	for i, b := range a.window {
		out[i] = b.clone()
	}
	return out
}

// Restore replaces the window state wholesale. It exists for the persistence
// collaborator and for tests that need a pre-aged window without waiting for
// real calendar days to pass. Buckets must be ordered newest first; histograms
// are resized to the timeout domain if needed.
func (a *Aggregator) Restore(buckets []*DayBucket, totalCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(buckets) == 0 {
		// Treated as a reset.
		a.window = []*DayBucket{NewDayBucket(today(), a.timeout)}
		a.totalCount = 0
		return
	}

	a.window = buckets
	a.totalCount = totalCount
	for _, b := range a.window {
		if len(b.Histogram) != a.timeout {
			h := make([]uint32, a.timeout)
			copy(h, b.Histogram)
			b.Histogram = h
		}
	}
}
