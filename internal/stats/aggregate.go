package stats

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// ErrNoSuccessfulSamples means a run finished without a single 2xx response.
// A zero latency would be indistinguishable from a fast target, so no result
// is produced.
var ErrNoSuccessfulSamples = errors.New("no successful samples")

// BenchmarkResult is the summary of one scenario run. Latencies are in
// milliseconds.
type BenchmarkResult struct {
	Variant       string    `json:"apiType"`
	Operation     string    `json:"operation"`
	DatasetSize   int       `json:"datasetSize"`
	AvgLatencyMs  float64   `json:"avgLatencyMs"`
	P50           float64   `json:"p50"`
	P90           float64   `json:"p90"`
	P99           float64   `json:"p99"`
	ThroughputRps float64   `json:"throughputRps"`
	MemoryMb      float64   `json:"memoryMb"`
	ErrorRate     float64   `json:"errorRate"`
	Timestamp     time.Time `json:"timestamp"`
}

// Input is everything Aggregate needs from a finished run.
type Input struct {
	Variant     string
	Operation   string
	DatasetSize int
	Samples     []time.Duration
	Total       uint64
	Failed      uint64
	Elapsed     time.Duration
	MemoryBytes uint64
	Now         time.Time
}

// Aggregate reduces a run to a BenchmarkResult. Samples is sorted in place.
func Aggregate(in Input) (BenchmarkResult, error) {
	if len(in.Samples) == 0 {
		return BenchmarkResult{}, errors.Wrapf(ErrNoSuccessfulSamples,
			"%s %s (dataset %d): %d requests, %d failed", in.Variant, in.Operation, in.DatasetSize, in.Total, in.Failed)
	}

	sort.Slice(in.Samples, func(i, j int) bool { return in.Samples[i] < in.Samples[j] })

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return BenchmarkResult{
		Variant:       in.Variant,
		Operation:     in.Operation,
		DatasetSize:   in.DatasetSize,
		AvgLatencyMs:  Mean(in.Samples),
		P50:           Percentile(in.Samples, 0.50),
		P90:           Percentile(in.Samples, 0.90),
		P99:           Percentile(in.Samples, 0.99),
		ThroughputRps: Throughput(in.Total, in.Elapsed),
		MemoryMb:      float64(in.MemoryBytes) / (1024 * 1024),
		ErrorRate:     ErrorRate(in.Total, in.Failed),
		Timestamp:     now,
	}, nil
}

// Percentile returns the nearest-rank sample at index floor(len*q) of an
// ascending slice, in milliseconds. No interpolation.
func Percentile(sorted []time.Duration, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return toMs(sorted[idx])
}

// Mean returns the arithmetic mean in milliseconds.
func Mean(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += toMs(s)
	}
	return sum / float64(len(samples))
}

// Throughput counts every attempted request, failed ones included.
func Throughput(total uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(total) / elapsed.Seconds()
}

func ErrorRate(total, failed uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total) * 100
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
