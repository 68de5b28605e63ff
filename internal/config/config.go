package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"crudbench/internal/runner"
	"crudbench/internal/sweep"
)

const EnvPrefix = "CRUDBENCH"

// Config is the resolved harness configuration.
type Config struct {
	Variants []sweep.Variant `mapstructure:"variants"`
	// Used when Variants is empty.
	JitURL string `mapstructure:"jit_url"`
	AotURL string `mapstructure:"aot_url"`

	OutputDir    string        `mapstructure:"output_dir"`
	DatasetSizes []int         `mapstructure:"dataset_sizes"`
	Operations   []string      `mapstructure:"operations"`
	Duration     time.Duration `mapstructure:"duration"`
	Rate         int           `mapstructure:"rate"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	Warmup       bool          `mapstructure:"warmup"`
	WarmupPause  time.Duration `mapstructure:"warmup_pause"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	HistoryDB   string `mapstructure:"history_db"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	TUI         bool   `mapstructure:"tui"`

	Payloads Payloads `mapstructure:"payloads"`
}

type Payloads struct {
	Create string `mapstructure:"create"`
	Update string `mapstructure:"update"`
}

// SetDefaults registers every key so environment overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("jit_url", "http://localhost:5000")
	v.SetDefault("aot_url", "http://localhost:5001")
	v.SetDefault("output_dir", "./benchmark-results")
	v.SetDefault("dataset_sizes", []int{1000, 10000, 100000})
	v.SetDefault("operations", []string{"CREATE", "READ", "UPDATE", "DELETE", "BULK_READ"})
	v.SetDefault("duration", 30*time.Second)
	v.SetDefault("rate", 100)
	v.SetDefault("cooldown", 5*time.Second)
	v.SetDefault("warmup", true)
	v.SetDefault("warmup_pause", runner.DefaultWarmupPause)
	v.SetDefault("request_timeout", 5*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("history_db", defaultHistoryDB())
	v.SetDefault("metrics_addr", "")
	v.SetDefault("tui", false)
	v.SetDefault("payloads.create", "")
	v.SetDefault("payloads.update", "")
}

// Load reads cfgFile (or crudbench.yaml from . and $HOME/.crudbench) plus
// CRUDBENCH_* environment variables into v and decodes the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("crudbench")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".crudbench"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return &cfg, nil
}

// ResolvedVariants returns the explicit variant list, or JIT/AOT from the
// single-URL keys.
func (c *Config) ResolvedVariants() []sweep.Variant {
	if len(c.Variants) > 0 {
		return c.Variants
	}
	return []sweep.Variant{
		{Name: "JIT", URL: c.JitURL},
		{Name: "AOT", URL: c.AotURL},
	}
}

// Plan builds and validates the sweep plan.
func (c *Config) Plan() (sweep.Plan, error) {
	ops, err := runner.ParseOperations(c.Operations)
	if err != nil {
		return sweep.Plan{}, err
	}
	p := sweep.Plan{
		Variants:     c.ResolvedVariants(),
		DatasetSizes: c.DatasetSizes,
		Operations:   ops,
		Duration:     c.Duration,
		Rate:         c.Rate,
		Cooldown:     c.Cooldown,
		Warmup:       c.Warmup,
	}
	return p, p.Validate()
}

// Validate checks the settings that are not part of the plan.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.Errorf("request_timeout %s must be positive", c.RequestTimeout)
	}
	if c.WarmupPause < 0 {
		return errors.Errorf("warmup_pause %s must not be negative", c.WarmupPause)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir is required")
	}
	_, err := c.Plan()
	return err
}

func defaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".crudbench", "history.db")
}
