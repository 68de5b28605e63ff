package sweep

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"crudbench/internal/runner"
	"crudbench/internal/stats"
)

// minEffectiveRate is one request per window.
const minEffectiveRate = int(time.Second / runner.Window)

// ScenarioRunner executes one timed scenario.
type ScenarioRunner interface {
	Run(ctx context.Context, spec runner.ScenarioSpec) (runner.Collected, error)
}

// ResultsWriter makes the results of a sweep durable.
type ResultsWriter interface {
	Write(startedAt time.Time, results []stats.BenchmarkResult) (string, error)
}

// Listener is told about scenario boundaries, for progress output.
type Listener interface {
	ScenarioStarted(index, total int, spec runner.ScenarioSpec)
	ScenarioFinished(index, total int, spec runner.ScenarioSpec, res *stats.BenchmarkResult, err error)
}

// Failure is a scenario that produced no result.
type Failure struct {
	Spec runner.ScenarioSpec
	Err  error
}

// Report is everything a sweep produced.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []stats.BenchmarkResult
	Failures   []Failure
	Artifact   string
}

// Sweeper runs every scenario of a plan, one at a time.
type Sweeper struct {
	Runner    ScenarioRunner
	Sink      ResultsWriter
	Listeners []Listener
	Log       logrus.FieldLogger

	// Memory returns the process memory in bytes at aggregation time.
	Memory func() uint64
	Now    func() time.Time
}

func New(r ScenarioRunner, sink ResultsWriter) *Sweeper {
	return &Sweeper{
		Runner: r,
		Sink:   sink,
		Log:    logrus.StandardLogger(),
		Memory: stats.MemorySnapshot,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the plan. A failing scenario is logged and skipped. An invalid
// plan or an unknown operation aborts before or during the sweep. When ctx is
// cancelled the sweep stops, the completed results are still written, and
// ctx.Err() is returned alongside the report.
func (s *Sweeper) Run(ctx context.Context, plan Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	scenarios := plan.Scenarios()
	report := &Report{
		StartedAt: s.Now(),
		Results:   make([]stats.BenchmarkResult, 0, len(scenarios)),
	}

	if plan.Rate < minEffectiveRate {
		s.Log.Warnf("rate %d rps is below %d rps; every 100ms window still sends one request, so the effective rate is %d rps",
			plan.Rate, minEffectiveRate, minEffectiveRate)
	}

	s.Log.Infof("sweep started: %d scenarios (%d variants x %d operations x %d dataset sizes)",
		len(scenarios), len(plan.Variants), len(plan.Operations), len(plan.DatasetSizes))

	var lastSize int
	for i, spec := range scenarios {
		if ctx.Err() != nil {
			break
		}
		if spec.DatasetSize != lastSize {
			s.Log.Infof("=== dataset size %d ===", spec.DatasetSize)
			lastSize = spec.DatasetSize
		}

		for _, l := range s.Listeners {
			l.ScenarioStarted(i, len(scenarios), spec)
		}

		res, err := s.runScenario(ctx, spec)

		for _, l := range s.Listeners {
			l.ScenarioFinished(i, len(scenarios), spec, res, err)
		}

		switch {
		case err == nil:
			report.Results = append(report.Results, *res)
		case errors.Is(err, runner.ErrUnknownOperation):
			report.FinishedAt = s.Now()
			return report, err
		case ctx.Err() != nil:
			// abandoned, reported below
		default:
			s.Log.WithFields(logrus.Fields{
				"variant":     spec.Variant,
				"operation":   spec.Operation,
				"datasetSize": spec.DatasetSize,
			}).WithError(err).Error("scenario failed, skipping")
			report.Failures = append(report.Failures, Failure{Spec: spec, Err: err})
		}

		if i < len(scenarios)-1 && plan.Cooldown > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(plan.Cooldown):
			}
		}
	}

	report.FinishedAt = s.Now()
	runErr := ctx.Err()
	if runErr != nil {
		s.Log.Warnf("sweep interrupted after %d results", len(report.Results))
	}

	if s.Sink != nil {
		path, err := s.Sink.Write(report.StartedAt, report.Results)
		if err != nil {
			return report, errors.Wrap(err, "writing results")
		}
		report.Artifact = path
		s.Log.Infof("results saved to %s", path)
	}

	s.Log.Infof("sweep completed: %d results, %d scenarios skipped", len(report.Results), len(report.Failures))
	return report, runErr
}

func (s *Sweeper) runScenario(ctx context.Context, spec runner.ScenarioSpec) (*stats.BenchmarkResult, error) {
	s.Log.Infof("running %s benchmark for %s (dataset %d)", spec.Variant, spec.Operation, spec.DatasetSize)

	collected, err := s.Runner.Run(ctx, spec)
	if err != nil {
		return nil, err
	}

	var mem uint64
	if s.Memory != nil {
		mem = s.Memory()
	}

	res, err := stats.Aggregate(stats.Input{
		Variant:     spec.Variant,
		Operation:   spec.Operation.String(),
		DatasetSize: spec.DatasetSize,
		Samples:     collected.Samples,
		Total:       collected.Total,
		Failed:      collected.Failed,
		Elapsed:     collected.Elapsed,
		MemoryBytes: mem,
		Now:         s.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.Log.Infof("benchmark completed: avg=%.2fms p99=%.2fms throughput=%.1frps errors=%d",
		res.AvgLatencyMs, res.P99, res.ThroughputRps, collected.Failed)
	return &res, nil
}
