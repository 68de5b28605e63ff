package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"crudbench/internal/runner"
	"crudbench/internal/stats"
	"crudbench/internal/sweep"
	"crudbench/internal/tui/styles"
)

// Progress prints one status line per scenario to a terminal, redrawn from the
// runner's snapshots.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	updates runner.StatsUpdateChan
}

func NewProgress(out io.Writer, updates runner.StatsUpdateChan) *Progress {
	return &Progress{out: out, updates: updates}
}

// Start drains the updates channel until ctx is done.
func (p *Progress) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-p.updates:
				p.printSnapshot(s)
			}
		}
	}()
}

func (p *Progress) ScenarioStarted(index, total int, spec runner.ScenarioSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n[%d/%d] %s %s (dataset %d)\n", index+1, total, spec.Variant, spec.Operation, spec.DatasetSize)
}

func (p *Progress) ScenarioFinished(_, _ int, spec runner.ScenarioSpec, res *stats.BenchmarkResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.out, "\n   SKIPPED: %v\n", err)
		return
	}
	fmt.Fprintf(p.out, "\n   avg %.2fms | p50 %.2fms | p90 %.2fms | p99 %.2fms | %.1f rps | err %.2f%%\n",
		res.AvgLatencyMs, res.P50, res.P90, res.P99, res.ThroughputRps, res.ErrorRate)
}

func (p *Progress) printSnapshot(s runner.StatsSnapshot) {
	pct := 0.0
	if s.Duration > 0 {
		pct = s.Elapsed.Seconds() / s.Duration.Seconds()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r   %s %3.0f%% | %s/%s | Inf: %3d | Req: %d | Err: %d | p99~ %.1fms   ",
		progressBar(pct, 20), clamp(pct)*100,
		s.Elapsed.Round(time.Second), s.Duration,
		s.Inflight, s.Requests, s.Failures, s.P99Ms)
}

func clamp(pct float64) float64 {
	if pct > 1.0 {
		return 1.0
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func progressBar(pct float64, width int) string {
	filled := int(clamp(pct) * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// PrintHeader describes the sweep about to run.
func PrintHeader(out io.Writer, plan sweep.Plan, outputDir string) {
	fmt.Fprintf(out, "\nSTARTING CRUDBENCH SWEEP\n")
	fmt.Fprintf(out, "======================================================================\n")
	for i, v := range plan.Variants {
		fmt.Fprintf(out, "%s : %s\n", styles.Variant(i).Render(fmt.Sprintf("%-10s", v.Name)), v.URL)
	}
	ops := make([]string, len(plan.Operations))
	for i, op := range plan.Operations {
		ops[i] = op.String()
	}
	fmt.Fprintf(out, "Operations : %s\n", strings.Join(ops, ", "))
	fmt.Fprintf(out, "Datasets   : %v\n", plan.DatasetSizes)
	fmt.Fprintf(out, "Load       : %d rps for %s, cooldown %s\n", plan.Rate, plan.Duration, plan.Cooldown)
	fmt.Fprintf(out, "Output     : %s\n", outputDir)
	fmt.Fprintf(out, "======================================================================\n")
}
