package analytics

// DayBucket aggregates all samples received during one calendar day: how many
// were accepted, how many rejected, their running mean, and a value-frequency
// histogram. The histogram is a flat array indexed by sample value, sized to
// the timeout bound, so increments are O(1) and median scans walk it in
// ascending order without sorting anything.
//
// Fields are exported so an external collaborator can snapshot the window or
// seed it back (tests, persistence).
type DayBucket struct {
	Date        string  `json:"date"`
	Count       int     `json:"count"`
	ErrorCount  int     `json:"error_count"`
	RunningMean float64 `json:"running_mean"`
	Histogram   []uint32
}

func NewDayBucket(date string, timeout int) *DayBucket {
	return &DayBucket{
		Date:      date,
		Histogram: make([]uint32, timeout),
	}
}

// observe folds an already-validated sample into the bucket.
func (b *DayBucket) observe(value float64) {
	b.Count++
	b.RunningMean = (float64(b.Count-1)*b.RunningMean + value) / float64(b.Count)
	b.Histogram[int(value)]++
}

func (b *DayBucket) clone() DayBucket {
	c := *b
	c.Histogram = make([]uint32, len(b.Histogram))
	copy(c.Histogram, b.Histogram)
	return c
}
