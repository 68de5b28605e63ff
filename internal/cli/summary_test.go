package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudbench/internal/runner"
	"crudbench/internal/stats"
	"crudbench/internal/storage"
	"crudbench/internal/sweep"
)

func summaryPlan() sweep.Plan {
	return sweep.Plan{
		Variants:     []sweep.Variant{{Name: "JIT", URL: "http://a"}, {Name: "AOT", URL: "http://b"}},
		DatasetSizes: []int{1000, 10000},
		Operations:   []runner.Operation{runner.OpCreate, runner.OpRead},
		Duration:     time.Second,
		Rate:         100,
	}
}

func TestCompare(t *testing.T) {
	results := []stats.BenchmarkResult{
		{Variant: "JIT", Operation: "CREATE", DatasetSize: 1000, AvgLatencyMs: 10, P99: 40, ThroughputRps: 100, MemoryMb: 200},
		{Variant: "AOT", Operation: "CREATE", DatasetSize: 1000, AvgLatencyMs: 5, P99: 30, ThroughputRps: 150, MemoryMb: 50},
		{Variant: "JIT", Operation: "READ", DatasetSize: 1000, AvgLatencyMs: 2},
		// AOT READ 1000 was skipped; nothing ran at 10000
	}

	got := Compare(summaryPlan(), results, "JIT", "AOT")
	require.Len(t, got, 2)

	create := got[0]
	assert.Equal(t, "CREATE", create.Operation)
	assert.Equal(t, 1000, create.DatasetSize)
	assert.InDelta(t, 50, create.Improvement.AvgLatency, 1e-9)
	assert.InDelta(t, 25, create.Improvement.P99, 1e-9)
	assert.InDelta(t, 50, create.Improvement.Throughput, 1e-9)
	assert.InDelta(t, 75, create.Improvement.Memory, 1e-9)

	read := got[1]
	assert.Equal(t, "READ", read.Operation)
	assert.NotNil(t, read.Base)
	assert.Nil(t, read.Other)
	assert.Zero(t, read.Improvement)
}

func TestPrintSummary(t *testing.T) {
	started := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	report := &sweep.Report{
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Results: []stats.BenchmarkResult{
			{Variant: "JIT", Operation: "CREATE", DatasetSize: 1000, AvgLatencyMs: 10, P99: 40, ThroughputRps: 100},
			{Variant: "AOT", Operation: "CREATE", DatasetSize: 1000, AvgLatencyMs: 5, P99: 30, ThroughputRps: 150},
		},
		Failures: []sweep.Failure{{
			Spec: runner.ScenarioSpec{Variant: "AOT", Operation: runner.OpRead, DatasetSize: 1000},
			Err:  errors.New("connection refused"),
		}},
		Artifact: "out/benchmark-results-20250101-090000.json",
	}

	var buf bytes.Buffer
	PrintSummary(&buf, summaryPlan(), report)
	out := buf.String()

	assert.Contains(t, out, "Results  : 2 of 8 scenarios")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "+50.0%")
	assert.Contains(t, out, "SKIPPED SCENARIOS")
	assert.Contains(t, out, "AOT READ (dataset 1000): connection refused")
	assert.Contains(t, out, "Results saved to out/benchmark-results-20250101-090000.json")
}

func TestProgress_ListenerOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, make(runner.StatsUpdateChan))
	spec := runner.ScenarioSpec{Variant: "JIT", Operation: runner.OpDelete, DatasetSize: 100}

	p.ScenarioStarted(0, 4, spec)
	p.ScenarioFinished(0, 4, spec, nil, errors.New("no successful samples"))
	p.ScenarioStarted(1, 4, spec)
	p.ScenarioFinished(1, 4, spec, &stats.BenchmarkResult{AvgLatencyMs: 1.25, ThroughputRps: 99}, nil)

	out := buf.String()
	assert.Contains(t, out, "[1/4] JIT DELETE (dataset 100)")
	assert.Contains(t, out, "SKIPPED: no successful samples")
	assert.Contains(t, out, "[2/4] JIT DELETE")
	assert.Contains(t, out, "avg 1.25ms")
	assert.Contains(t, out, "99.0 rps")
}

func TestHistoryRows(t *testing.T) {
	started := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	items := []storage.HistoryItem{{
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Artifact:   "a.json",
		Summary:    storage.SweepSummary{Scenarios: 30, Results: 18, Skipped: 12, Interrupted: true},
	}}

	rows := HistoryRows(items)
	require.Len(t, rows, 1)
	assert.Equal(t, "2m0s", rows[0][1])
	assert.Equal(t, "18/30", rows[0][2])
	assert.Equal(t, "12", rows[0][3])
	assert.Equal(t, "interrupted", rows[0][4])
	assert.Equal(t, "a.json", rows[0][5])

	var buf bytes.Buffer
	PrintHistory(&buf, nil)
	assert.Contains(t, buf.String(), "No sweeps recorded yet.")
}
