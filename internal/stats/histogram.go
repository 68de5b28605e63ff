package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	lowestLatencyUs  = 1
	highestLatencyUs = int64(10 * time.Minute / time.Microsecond)
)

// SafeHistogram holds approximate latencies for the live progress view.
// Reported percentiles never come from here; see Aggregate.
type SafeHistogram struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewSafeHistogram() *SafeHistogram {
	return &SafeHistogram{hist: hdrhistogram.New(lowestLatencyUs, highestLatencyUs, 3)}
}

// Record adds d in microseconds, clamped to [1us, 10min].
func (h *SafeHistogram) Record(d time.Duration) {
	us := min(max(d.Microseconds(), lowestLatencyUs), highestLatencyUs)

	h.mu.Lock()
	h.hist.RecordValue(us)
	h.mu.Unlock()
}

// PercentilesMs reads every requested percentile (0-100) under one lock.
func (h *SafeHistogram) PercentilesMs(qs ...float64) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = usToMs(h.hist.ValueAtQuantile(q))
	}
	return out
}

func (h *SafeHistogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return usToMs(h.hist.Max())
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

func usToMs(us int64) float64 { return float64(us) / 1000 }
