package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"crudbench/internal/stats"
)

const (
	// Window is the fixed scheduling slice; one batch is launched per window.
	Window           = 100 * time.Millisecond
	windowsPerSecond = int(time.Second / Window)

	DefaultWarmupPause = time.Second
	tickInterval       = 200 * time.Millisecond
)

// ErrInvalidScenario is returned for a scenario with a non-positive duration or rate.
var ErrInvalidScenario = errors.New("invalid scenario")

// StatsSnapshot is sent over the updates channel while a scenario runs.
type StatsSnapshot struct {
	Variant     string
	Operation   Operation
	DatasetSize int

	Requests uint64
	Failures uint64
	Inflight int64

	// Approximate, from the live histogram
	P50Ms float64
	P90Ms float64
	P99Ms float64

	ErrorRate float64
	Elapsed   time.Duration
	Duration  time.Duration
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot

// OutcomeObserver is notified of every dispatched request.
type OutcomeObserver interface {
	ObserveOutcome(spec ScenarioSpec, o Outcome)
}

// Runner drives a Dispatcher at a fixed rate for a fixed duration.
type Runner struct {
	Dispatcher  *Dispatcher
	WarmupPause time.Duration
	Log         logrus.FieldLogger
	Observers   []OutcomeObserver

	// Event Channel
	Updates StatsUpdateChan

	inflight atomic.Int64
}

func NewRunner(d *Dispatcher, updates StatsUpdateChan) *Runner {
	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}
	return &Runner{
		Dispatcher:  d,
		WarmupPause: DefaultWarmupPause,
		Log:         logrus.StandardLogger(),
		Updates:     updates,
	}
}

// Run executes one scenario. Each 100ms window launches spec.BatchSize()
// requests, waits for all of them, then sleeps out the rest of the window.
// Cancelling ctx stops new windows; requests already in flight finish on their
// own and the run is abandoned with ctx.Err().
func (r *Runner) Run(ctx context.Context, spec ScenarioSpec) (Collected, error) {
	if spec.Duration <= 0 || spec.Rate <= 0 {
		return Collected{}, errors.Wrapf(ErrInvalidScenario, "duration %s, rate %d", spec.Duration, spec.Rate)
	}
	if _, err := ParseOperation(string(spec.Operation)); err != nil {
		return Collected{}, err
	}

	log := r.Log.WithFields(logrus.Fields{
		"variant":     spec.Variant,
		"operation":   spec.Operation,
		"datasetSize": spec.DatasetSize,
	})

	if spec.Warmup {
		r.warmup(ctx, spec, log)
		if err := ctx.Err(); err != nil {
			return Collected{}, err
		}
	}

	batch := spec.BatchSize()
	acc := stats.NewAccumulator(batch * windowsPerSecond * int(spec.Duration/time.Second+1))

	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()

	start := time.Now()
	r.startTickLoop(tickCtx, spec, acc, start)

	// Requests outlive cancellation; only new windows are stopped.
	reqCtx := context.WithoutCancel(ctx)
	deadline := start.Add(spec.Duration)

	log.Debugf("timed phase started: %d requests per %s window", batch, Window)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		windowStart := time.Now()
		r.runBatch(reqCtx, spec, batch, acc, log)

		if rest := Window - time.Since(windowStart); rest > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(rest):
			}
		}
	}
	elapsed := time.Since(start)

	r.sendUpdate(spec, acc, start)

	if err := ctx.Err(); err != nil {
		log.Warnf("run abandoned after %s: %v", elapsed.Round(time.Millisecond), err)
		return Collected{}, err
	}

	return Collected{
		Samples: acc.Samples(),
		Total:   acc.Total(),
		Failed:  acc.Failed(),
		Elapsed: elapsed,
	}, nil
}

func (r *Runner) warmup(ctx context.Context, spec ScenarioSpec, log logrus.FieldLogger) {
	if err := r.Dispatcher.Probe(ctx, spec.BaseURL); err != nil {
		log.WithError(err).Warn("warmup probe failed, continuing anyway")
	}
	if r.WarmupPause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.WarmupPause):
	}
}

func (r *Runner) runBatch(ctx context.Context, spec ScenarioSpec, n int, acc *stats.Accumulator, log logrus.FieldLogger) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.executeRequest(ctx, spec, acc, log)
		}()
	}
	wg.Wait()
}

func (r *Runner) executeRequest(ctx context.Context, spec ScenarioSpec, acc *stats.Accumulator, log logrus.FieldLogger) {
	r.inflight.Add(1)
	defer r.inflight.Add(-1)

	o := r.Dispatcher.Do(ctx, spec.BaseURL, spec.Operation)
	acc.Record(o.Latency, o.Success())
	if !o.Success() {
		log.WithError(o.Err).Debug("request failed")
	}

	for _, obs := range r.Observers {
		obs.ObserveOutcome(spec, o)
	}
}

// startTickLoop pushes a snapshot every tickInterval until ctx is done.
func (r *Runner) startTickLoop(ctx context.Context, spec ScenarioSpec, acc *stats.Accumulator, start time.Time) {
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate(spec, acc, start)
			}
		}
	}()
}

func (r *Runner) sendUpdate(spec ScenarioSpec, acc *stats.Accumulator, start time.Time) {
	live := acc.Live().PercentilesMs(50, 90, 99)
	s := StatsSnapshot{
		Variant:     spec.Variant,
		Operation:   spec.Operation,
		DatasetSize: spec.DatasetSize,
		Requests:    acc.Total(),
		Failures:    acc.Failed(),
		Inflight:    r.inflight.Load(),
		P50Ms:       live[0],
		P90Ms:       live[1],
		P99Ms:       live[2],
		ErrorRate:   acc.ErrorRate(),
		Elapsed:     time.Since(start),
		Duration:    spec.Duration,
	}

	// Non-blocking send
	select {
	case r.Updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

func (r *Runner) GetInflight() int64 {
	return r.inflight.Load()
}
