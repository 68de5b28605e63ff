package sweep

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"crudbench/internal/runner"
)

// ErrInvalidPlan wraps every plan validation failure.
var ErrInvalidPlan = errors.New("invalid sweep plan")

// Variant is one API build under test.
type Variant struct {
	Name string `json:"name" mapstructure:"name"`
	URL  string `json:"url" mapstructure:"url"`
}

// Plan is the full matrix of a sweep.
type Plan struct {
	Variants     []Variant          `json:"variants"`
	DatasetSizes []int              `json:"datasetSizes"`
	Operations   []runner.Operation `json:"operations"`
	Duration     time.Duration      `json:"duration"`
	Rate         int                `json:"rate"`
	Cooldown     time.Duration      `json:"cooldown"`
	Warmup       bool               `json:"warmup"`
}

func (p Plan) Validate() error {
	if len(p.Variants) == 0 {
		return errors.Wrap(ErrInvalidPlan, "no variants configured")
	}
	seen := make(map[string]bool, len(p.Variants))
	for i, v := range p.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return errors.Wrapf(ErrInvalidPlan, "variant %d has no name", i)
		}
		if strings.TrimSpace(v.URL) == "" {
			return errors.Wrapf(ErrInvalidPlan, "variant %s has no url", v.Name)
		}
		if seen[v.Name] {
			return errors.Wrapf(ErrInvalidPlan, "variant %s listed twice", v.Name)
		}
		seen[v.Name] = true
	}
	if len(p.DatasetSizes) == 0 {
		return errors.Wrap(ErrInvalidPlan, "no dataset sizes configured")
	}
	for _, n := range p.DatasetSizes {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidPlan, "dataset size %d must be positive", n)
		}
	}
	if len(p.Operations) == 0 {
		return errors.Wrap(ErrInvalidPlan, "no operations configured")
	}
	for _, op := range p.Operations {
		if _, err := runner.ParseOperation(string(op)); err != nil {
			return err
		}
	}
	if p.Duration <= 0 {
		return errors.Wrapf(ErrInvalidPlan, "duration %s must be positive", p.Duration)
	}
	if p.Rate <= 0 {
		return errors.Wrapf(ErrInvalidPlan, "rate %d must be positive", p.Rate)
	}
	if p.Cooldown < 0 {
		return errors.Wrapf(ErrInvalidPlan, "cooldown %s must not be negative", p.Cooldown)
	}
	return nil
}

// Scenarios enumerates the plan: dataset size, then operation, then variant.
func (p Plan) Scenarios() []runner.ScenarioSpec {
	out := make([]runner.ScenarioSpec, 0, len(p.DatasetSizes)*len(p.Operations)*len(p.Variants))
	for _, size := range p.DatasetSizes {
		for _, op := range p.Operations {
			for _, v := range p.Variants {
				out = append(out, runner.ScenarioSpec{
					Variant:     v.Name,
					BaseURL:     v.URL,
					Operation:   op,
					DatasetSize: size,
					Duration:    p.Duration,
					Rate:        p.Rate,
					Warmup:      p.Warmup,
				})
			}
		}
	}
	return out
}
