package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"crudbench/internal/runner"
	"crudbench/internal/stats"
	"crudbench/internal/sweep"
	"crudbench/internal/tui/styles"
)

const maxRecent = 8

type snapshotMsg runner.StatsSnapshot

type startedMsg struct {
	index, total int
	spec         runner.ScenarioSpec
}

type finishedMsg struct {
	index, total int
	spec         runner.ScenarioSpec
	res          *stats.BenchmarkResult
	err          error
}

type doneMsg struct{}

// Model renders the progress of a running sweep.
type Model struct {
	updates runner.StatsUpdateChan
	cancel  context.CancelFunc

	Overall  progress.Model
	Scenario progress.Model

	index, total int
	spec         runner.ScenarioSpec
	snap         runner.StatsSnapshot
	recent       []string
	completed    int
	skipped      int

	stopping bool
	width    int
}

func NewModel(updates runner.StatsUpdateChan, cancel context.CancelFunc) Model {
	return Model{
		updates:  updates,
		cancel:   cancel,
		Overall:  progress.New(progress.WithDefaultGradient()),
		Scenario: progress.New(progress.WithSolidFill(string(styles.ColorSecondary))),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-updates)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.Overall.Width = msg.Width - 8
		m.Scenario.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// The sweep still writes what it has; wait for it.
			m.stopping = true
			m.cancel()
		}
		return m, nil

	case snapshotMsg:
		m.snap = runner.StatsSnapshot(msg)
		return m, waitForSnapshot(m.updates)

	case startedMsg:
		m.index, m.total, m.spec = msg.index, msg.total, msg.spec
		m.snap = runner.StatsSnapshot{}
		return m, nil

	case finishedMsg:
		m.completed++
		line := fmt.Sprintf("%-5s %-9s %7d  ", msg.spec.Variant, msg.spec.Operation, msg.spec.DatasetSize)
		if msg.err != nil {
			m.skipped++
			line += styles.Error.Render("skipped: " + truncate(msg.err.Error(), 60))
		} else {
			line += styles.Value.Render(fmt.Sprintf("avg %.2fms  p99 %.2fms  %.1f rps", msg.res.AvgLatencyMs, msg.res.P99, msg.res.ThroughputRps))
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}
		return m, nil

	case doneMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("crudbench sweep"))
	s.WriteString("\n\n")

	overall := 0.0
	if m.total > 0 {
		overall = float64(m.completed) / float64(m.total)
	}
	s.WriteString(fmt.Sprintf("Scenarios %d/%d  (%d skipped)\n", m.completed, m.total, m.skipped))
	s.WriteString(m.Overall.ViewAs(overall))
	s.WriteString("\n\n")

	if m.total > 0 {
		s.WriteString(styles.Active.Render(fmt.Sprintf("%s %s", m.spec.Variant, m.spec.Operation)))
		s.WriteString(styles.Subtle.Render(fmt.Sprintf("  dataset %d  %d rps for %s", m.spec.DatasetSize, m.spec.Rate, m.spec.Duration)))
		s.WriteString("\n")

		pct := 0.0
		if m.snap.Duration > 0 {
			pct = min(m.snap.Elapsed.Seconds()/m.snap.Duration.Seconds(), 1.0)
		}
		s.WriteString(m.Scenario.ViewAs(pct))
		s.WriteString("\n\n")

		leftCol := fmt.Sprintf(
			"Requests: %d\nInflight: %d\nErrors:   %.2f%%",
			m.snap.Requests, m.snap.Inflight, m.snap.ErrorRate,
		)
		rightCol := fmt.Sprintf(
			"Latency (live)\n  P50: %.2f ms\n  P90: %.2f ms\n  P99: %.2f ms",
			m.snap.P50Ms, m.snap.P90Ms, m.snap.P99Ms,
		)
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(30).Render(leftCol),
			lipgloss.NewStyle().Width(30).Render(rightCol),
		))
		s.WriteString("\n\n")
	}

	if len(m.recent) > 0 {
		s.WriteString(styles.Subtle.Render("Recent"))
		s.WriteString("\n")
		s.WriteString(strings.Join(m.recent, "\n"))
		s.WriteString("\n\n")
	}

	if m.stopping {
		s.WriteString(styles.Warn.Render("Stopping, saving completed results..."))
	} else {
		s.WriteString(styles.RenderKey("q", "stop sweep"))
	}
	return styles.Panel.Render(s.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

type listener struct {
	p *tea.Program
}

func (l listener) ScenarioStarted(index, total int, spec runner.ScenarioSpec) {
	l.p.Send(startedMsg{index: index, total: total, spec: spec})
}

func (l listener) ScenarioFinished(index, total int, spec runner.ScenarioSpec, res *stats.BenchmarkResult, err error) {
	l.p.Send(finishedMsg{index: index, total: total, spec: spec, res: res, err: err})
}

// Run shows the progress of run until it returns. Quitting the UI calls cancel
// and waits for run to finish so completed results are still written.
func Run(updates runner.StatsUpdateChan, cancel context.CancelFunc, run func(sweep.Listener) (*sweep.Report, error)) (*sweep.Report, error) {
	p := tea.NewProgram(NewModel(updates, cancel), tea.WithAltScreen())

	type outcome struct {
		report *sweep.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := run(listener{p: p})
		done <- outcome{report, err}
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	o := <-done
	return o.report, o.err
}
