package runner

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownOperation is returned for operation tags outside the fixed set.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is one of the five CRUD calls the harness knows how to issue.
type Operation string

const (
	OpCreate   Operation = "CREATE"
	OpRead     Operation = "READ"
	OpUpdate   Operation = "UPDATE"
	OpDelete   Operation = "DELETE"
	OpBulkRead Operation = "BULK_READ"
)

// AllOperations is the default sweep order.
var AllOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete, OpBulkRead}

func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToUpper(strings.TrimSpace(s)))
	switch op {
	case OpCreate, OpRead, OpUpdate, OpDelete, OpBulkRead:
		return op, nil
	}
	return "", errors.Wrapf(ErrUnknownOperation, "%q", s)
}

func ParseOperations(names []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(names))
	for _, n := range names {
		op, err := ParseOperation(n)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (o Operation) String() string { return string(o) }

// ScenarioSpec describes one timed run. It is never mutated once built.
type ScenarioSpec struct {
	Variant     string
	BaseURL     string
	Operation   Operation
	DatasetSize int
	Duration    time.Duration
	Rate        int // requests per second
	Warmup      bool
}

// BatchSize is the number of requests launched per 100ms window.
func (s ScenarioSpec) BatchSize() int {
	n := s.Rate / windowsPerSecond
	if n < 1 {
		return 1
	}
	return n
}

// Outcome is the result of a single dispatched call: a latency when Err is nil.
type Outcome struct {
	Latency time.Duration
	Status  int
	Err     error
}

func (o Outcome) Success() bool { return o.Err == nil }

// Collected is the raw output of a timed run.
type Collected struct {
	Samples []time.Duration
	Total   uint64
	Failed  uint64
	Elapsed time.Duration
}
