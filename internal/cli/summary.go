package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"crudbench/internal/stats"
	"crudbench/internal/sweep"
	"crudbench/internal/tui/styles"
)

// Comparison pairs the results of two variants for one operation and dataset size.
type Comparison struct {
	Operation   string
	DatasetSize int
	Base        *stats.BenchmarkResult
	Other       *stats.BenchmarkResult
	Improvement Improvement
}

// Improvement is how much better Other is than Base, in percent. Positive
// latency and memory values mean Other is lower; positive throughput means
// Other is higher.
type Improvement struct {
	AvgLatency float64
	P99        float64
	Throughput float64
	Memory     float64
}

// Compare groups results by (dataset size, operation) in plan order and pairs
// the base variant with other. Either side may be missing when a scenario was
// skipped.
func Compare(plan sweep.Plan, results []stats.BenchmarkResult, base, other string) []Comparison {
	type key struct {
		size int
		op   string
	}
	byKey := make(map[key]map[string]*stats.BenchmarkResult)
	for i := range results {
		r := &results[i]
		k := key{r.DatasetSize, r.Operation}
		if byKey[k] == nil {
			byKey[k] = make(map[string]*stats.BenchmarkResult)
		}
		byKey[k][r.Variant] = r
	}

	var out []Comparison
	for _, size := range plan.DatasetSizes {
		for _, op := range plan.Operations {
			group := byKey[key{size, op.String()}]
			if group == nil {
				continue
			}
			c := Comparison{Operation: op.String(), DatasetSize: size, Base: group[base], Other: group[other]}
			if c.Base != nil && c.Other != nil {
				c.Improvement = Improvement{
					AvgLatency: reduction(c.Base.AvgLatencyMs, c.Other.AvgLatencyMs),
					P99:        reduction(c.Base.P99, c.Other.P99),
					Throughput: -reduction(c.Base.ThroughputRps, c.Other.ThroughputRps),
					Memory:     reduction(c.Base.MemoryMb, c.Other.MemoryMb),
				}
			}
			out = append(out, c)
		}
	}
	return out
}

func reduction(base, other float64) float64 {
	if base == 0 {
		return 0
	}
	return (base - other) / base * 100
}

// PrintSummary renders the end-of-sweep table.
func PrintSummary(out io.Writer, plan sweep.Plan, report *sweep.Report) {
	fmt.Fprintf(out, "\n\nSWEEP RESULTS\n")
	fmt.Fprintf(out, "Duration : %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	fmt.Fprintf(out, "Results  : %d of %d scenarios\n", len(report.Results), len(plan.Scenarios()))

	if len(plan.Variants) >= 2 && len(report.Results) > 0 {
		base, other := plan.Variants[0].Name, plan.Variants[1].Name
		fmt.Fprintf(out, "Compared : %s vs %s\n", styles.Variant(0).Render(base), styles.Variant(1).Render(other))
		fmt.Fprintln(out, renderComparison(Compare(plan, report.Results, base, other), base, other))
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(out, "\n%s\n", styles.Error.Render("SKIPPED SCENARIOS"))
		for _, f := range report.Failures {
			fmt.Fprintf(out, "   %s %s (dataset %d): %v\n", f.Spec.Variant, f.Spec.Operation, f.Spec.DatasetSize, f.Err)
		}
	}
	if report.Artifact != "" {
		fmt.Fprintf(out, "\nResults saved to %s\n", report.Artifact)
	}
}

func renderComparison(rows []Comparison, base, other string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.ColorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Active.Padding(0, 1)
			}
			return styles.Text.Padding(0, 1)
		}).
		Headers("Dataset", "Operation",
			base+" avg", other+" avg", "Δ avg",
			base+" p99", other+" p99", "Δ p99",
			base+" rps", other+" rps", "Δ rps")

	for _, c := range rows {
		t.Row(
			fmt.Sprintf("%d", c.DatasetSize), c.Operation,
			ms(c.Base, func(r *stats.BenchmarkResult) float64 { return r.AvgLatencyMs }),
			ms(c.Other, func(r *stats.BenchmarkResult) float64 { return r.AvgLatencyMs }),
			delta(c, c.Improvement.AvgLatency),
			ms(c.Base, func(r *stats.BenchmarkResult) float64 { return r.P99 }),
			ms(c.Other, func(r *stats.BenchmarkResult) float64 { return r.P99 }),
			delta(c, c.Improvement.P99),
			rps(c.Base), rps(c.Other),
			delta(c, c.Improvement.Throughput),
		)
	}
	return t.String()
}

func ms(r *stats.BenchmarkResult, f func(*stats.BenchmarkResult) float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fms", f(r))
}

func rps(r *stats.BenchmarkResult) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", r.ThroughputRps)
}

func delta(c Comparison, v float64) string {
	if c.Base == nil || c.Other == nil {
		return "-"
	}
	return styles.Delta(v).Render(fmt.Sprintf("%+.1f%%", v))
}

// PrintCheck reports one liveness probe result.
func PrintCheck(out io.Writer, v sweep.Variant, err error) {
	if err != nil {
		fmt.Fprintf(out, "%s %-8s %s: %v\n", styles.Error.Render("DOWN"), v.Name, v.URL, err)
		return
	}
	fmt.Fprintf(out, "%s %-8s %s\n", styles.Success.Render("UP  "), v.Name, v.URL)
}
