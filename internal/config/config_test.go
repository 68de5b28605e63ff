package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudbench/internal/runner"
	"crudbench/internal/sweep"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crudbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, 100, cfg.Rate)
	assert.Equal(t, 5*time.Second, cfg.Cooldown)
	assert.True(t, cfg.Warmup)
	assert.Equal(t, time.Second, cfg.WarmupPause)
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, []int{1000, 10000, 100000}, cfg.DatasetSizes)
	assert.Equal(t, "./benchmark-results", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())

	plan, err := cfg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []sweep.Variant{
		{Name: "JIT", URL: "http://localhost:5000"},
		{Name: "AOT", URL: "http://localhost:5001"},
	}, plan.Variants)
	assert.Equal(t, runner.AllOperations, plan.Operations)
	assert.Len(t, plan.Scenarios(), 30)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CRUDBENCH_RATE", "250")
	t.Setenv("CRUDBENCH_DURATION", "45s")
	t.Setenv("CRUDBENCH_JIT_URL", "http://jit.internal:8080")
	t.Setenv("CRUDBENCH_PAYLOADS_CREATE", `{"name":"{{uuid}}"}`)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Rate)
	assert.Equal(t, 45*time.Second, cfg.Duration)
	assert.Equal(t, "http://jit.internal:8080", cfg.ResolvedVariants()[0].URL)
	assert.Equal(t, `{"name":"{{uuid}}"}`, cfg.Payloads.Create)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
variants:
  - name: JIT
    url: http://localhost:7000
  - name: AOT
    url: http://localhost:7001
  - name: NATIVE
    url: http://localhost:7002
dataset_sizes: [500]
operations: [read, bulk_read]
duration: 10s
rate: 40
cooldown: 0s
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	plan, err := cfg.Plan()
	require.NoError(t, err)
	assert.Len(t, plan.Variants, 3)
	assert.Equal(t, "NATIVE", plan.Variants[2].Name)
	assert.Equal(t, []int{500}, plan.DatasetSizes)
	assert.Equal(t, []runner.Operation{runner.OpRead, runner.OpBulkRead}, plan.Operations)
	assert.Equal(t, 10*time.Second, plan.Duration)
	assert.Equal(t, 40, plan.Rate)
	assert.Zero(t, plan.Cooldown)
	assert.Len(t, plan.Scenarios(), 6)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		modify func(c *Config)
		is     error
	}{
		{"unknown operation", func(c *Config) { c.Operations = []string{"READ", "PATCH"} }, runner.ErrUnknownOperation},
		{"zero rate", func(c *Config) { c.Rate = 0 }, sweep.ErrInvalidPlan},
		{"no dataset sizes", func(c *Config) { c.DatasetSizes = nil }, sweep.ErrInvalidPlan},
		{"missing variant url", func(c *Config) { c.AotURL = "" }, sweep.ErrInvalidPlan},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, nil},
		{"no output dir", func(c *Config) { c.OutputDir = " " }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New(), "")
			require.NoError(t, err)
			tt.modify(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}
