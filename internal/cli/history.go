package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"crudbench/internal/storage"
	"crudbench/internal/tui/styles"
)

// HistoryRows flattens history items into table rows, newest first as given.
func HistoryRows(items []storage.HistoryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, item := range items {
		status := "complete"
		if item.Summary.Interrupted {
			status = "interrupted"
		}
		rows[i] = table.Row{
			item.StartedAt.Local().Format(time.DateTime),
			item.FinishedAt.Sub(item.StartedAt).Round(time.Second).String(),
			fmt.Sprintf("%d/%d", item.Summary.Results, item.Summary.Scenarios),
			fmt.Sprintf("%d", item.Summary.Skipped),
			status,
			item.Artifact,
		}
	}
	return rows
}

// PrintHistory renders past sweeps as a static table.
func PrintHistory(out io.Writer, items []storage.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, styles.Subtle.Render("No sweeps recorded yet."))
		return
	}

	columns := []table.Column{
		{Title: "Started", Width: 20},
		{Title: "Took", Width: 10},
		{Title: "Results", Width: 9},
		{Title: "Skipped", Width: 8},
		{Title: "Status", Width: 12},
		{Title: "Artifact", Width: 60},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(HistoryRows(items)),
		table.WithHeight(len(items)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	// nothing is selected in a static render
	s.Selected = s.Cell
	t.SetStyles(s)

	fmt.Fprintln(out, styles.Panel.Render(t.View()))
}
