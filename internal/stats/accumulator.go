package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Accumulator collects outcomes from concurrent writers. The sample list is
// guarded by mu; the counters are updated atomically.
type Accumulator struct {
	mu      sync.Mutex
	samples []time.Duration

	total  atomic.Uint64
	failed atomic.Uint64

	live *SafeHistogram
}

func NewAccumulator(capacityHint int) *Accumulator {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Accumulator{
		samples: make([]time.Duration, 0, capacityHint),
		live:    NewSafeHistogram(),
	}
}

// Record counts one attempted request. latency is kept only when ok is true.
func (a *Accumulator) Record(latency time.Duration, ok bool) {
	a.total.Add(1)
	if !ok {
		a.failed.Add(1)
		return
	}

	a.mu.Lock()
	a.samples = append(a.samples, latency)
	a.mu.Unlock()

	a.live.Record(latency)
}

// Samples returns a copy of the successful latencies in arrival order.
func (a *Accumulator) Samples() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]time.Duration, len(a.samples))
	copy(out, a.samples)
	return out
}

func (a *Accumulator) Total() uint64  { return a.total.Load() }
func (a *Accumulator) Failed() uint64 { return a.failed.Load() }

func (a *Accumulator) ErrorRate() float64 {
	return ErrorRate(a.Total(), a.Failed())
}

// Live exposes the approximate histogram used for progress reporting.
func (a *Accumulator) Live() *SafeHistogram { return a.live }
