package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestPercentile_NearestRank(t *testing.T) {
	samples := make([]time.Duration, 10)
	for i := range samples {
		samples[i] = ms(i + 1) // 1..10ms
	}

	// index floor(10*q)
	assert.Equal(t, 6.0, Percentile(samples, 0.50))
	assert.Equal(t, 10.0, Percentile(samples, 0.90))
	assert.Equal(t, 10.0, Percentile(samples, 0.99))
	assert.Equal(t, 1.0, Percentile(samples, 0))
}

func TestPercentile_SingleSample(t *testing.T) {
	samples := []time.Duration{ms(42)}
	assert.Equal(t, 42.0, Percentile(samples, 0.50))
	assert.Equal(t, 42.0, Percentile(samples, 0.99))
}

func TestAggregate_PercentilesAreOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(500) + 1
		samples := make([]time.Duration, n)
		var max time.Duration
		for i := range samples {
			samples[i] = time.Duration(rng.Int63n(int64(2 * time.Second)))
			if samples[i] > max {
				max = samples[i]
			}
		}

		res, err := Aggregate(Input{Samples: samples, Total: uint64(n), Elapsed: time.Second})
		require.NoError(t, err)

		assert.LessOrEqual(t, res.P50, res.P90)
		assert.LessOrEqual(t, res.P90, res.P99)
		assert.LessOrEqual(t, res.P99, toMs(max))
	}
}

func TestAggregate_ErrorRate(t *testing.T) {
	res, err := Aggregate(Input{
		Samples: []time.Duration{ms(1), ms(2)},
		Total:   100,
		Failed:  7,
		Elapsed: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.ErrorRate)
}

func TestAggregate_NoSamplesFails(t *testing.T) {
	res, err := Aggregate(Input{
		Variant:   "AOT",
		Operation: "READ",
		Total:     50,
		Failed:    50,
		Elapsed:   time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSuccessfulSamples))
	assert.Contains(t, err.Error(), "AOT READ")
	assert.Equal(t, BenchmarkResult{}, res)
}

func TestAggregate_Fields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res, err := Aggregate(Input{
		Variant:     "JIT",
		Operation:   "CREATE",
		DatasetSize: 10000,
		Samples:     []time.Duration{ms(30), ms(10), ms(20)},
		Total:       4,
		Failed:      1,
		Elapsed:     2 * time.Second,
		MemoryBytes: 64 * 1024 * 1024,
		Now:         now,
	})
	require.NoError(t, err)

	assert.Equal(t, "JIT", res.Variant)
	assert.Equal(t, "CREATE", res.Operation)
	assert.Equal(t, 10000, res.DatasetSize)
	assert.InDelta(t, 20.0, res.AvgLatencyMs, 1e-9)
	assert.Equal(t, 20.0, res.P50)
	assert.Equal(t, 30.0, res.P90)
	assert.Equal(t, 30.0, res.P99)
	// failed requests count toward throughput
	assert.InDelta(t, 2.0, res.ThroughputRps, 1e-9)
	assert.InDelta(t, 64.0, res.MemoryMb, 1e-9)
	assert.Equal(t, 25.0, res.ErrorRate)
	assert.Equal(t, now, res.Timestamp)
}

func TestErrorRate_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, ErrorRate(0, 0))
}

func TestThroughput_ZeroElapsed(t *testing.T) {
	assert.Equal(t, 0.0, Throughput(10, 0))
}

func TestMemorySnapshot(t *testing.T) {
	assert.Greater(t, MemorySnapshot(), uint64(0))
}
