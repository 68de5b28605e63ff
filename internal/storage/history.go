package storage

import (
	"time"

	"github.com/google/uuid"

	"crudbench/internal/sweep"
)

// HistoryItem records one finished sweep.
type HistoryItem struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Artifact   string       `json:"artifact"`
	Plan       sweep.Plan   `json:"plan"`
	Summary    SweepSummary `json:"summary"`
}

type SweepSummary struct {
	Scenarios   int  `json:"scenarios"`
	Results     int  `json:"results"`
	Skipped     int  `json:"skipped"`
	Interrupted bool `json:"interrupted"`
}

func NewHistoryItem(plan sweep.Plan, report *sweep.Report, interrupted bool) HistoryItem {
	return HistoryItem{
		ID:         uuid.NewString(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Artifact:   report.Artifact,
		Plan:       plan,
		Summary: SweepSummary{
			Scenarios:   len(plan.Scenarios()),
			Results:     len(report.Results),
			Skipped:     len(report.Failures),
			Interrupted: interrupted,
		},
	}
}
