package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"crudbench/internal/stats"
)

const artifactTimeFormat = "20060102-150405"

// Sink writes the results of a sweep as one JSON document.
type Sink struct {
	Dir string
}

func NewSink(dir string) *Sink {
	return &Sink{Dir: dir}
}

// ArtifactName is the file name for a sweep started at t.
func ArtifactName(t time.Time) string {
	return "benchmark-results-" + t.UTC().Format(artifactTimeFormat) + ".json"
}

// Write stores results under Dir, creating it if needed, and returns the path.
func (s *Sink) Write(startedAt time.Time, results []stats.BenchmarkResult) (string, error) {
	if results == nil {
		results = []stats.BenchmarkResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding results")
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", s.Dir)
	}

	path := filepath.Join(s.Dir, ArtifactName(startedAt))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}

// ReadArtifact loads a results file written by Write.
func ReadArtifact(path string) ([]stats.BenchmarkResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []stats.BenchmarkResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return results, nil
}
