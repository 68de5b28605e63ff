package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crudbench/internal/banner"
	"crudbench/internal/config"
	"crudbench/internal/logging"
	"crudbench/internal/runner"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "crudbench",
	Short: "crudbench - JIT vs AOT CRUD API benchmark harness",
	Long: `
crudbench drives identical fixed-rate load at two builds of the same CRUD API
and records latency percentiles, throughput, memory and error rate for every
(variant, operation, dataset size) combination.

Run without a subcommand to execute the full sweep. Results are written to a
timestamped JSON file in the output directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(v, cfgFile); err != nil {
			return err
		}
		return logging.Configure(cfg.LogLevel, cfg.LogFormat, nil)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd.Context(), cfg)
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(stubCmd, checkCmd, historyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./crudbench.yaml or $HOME/.crudbench/crudbench.yaml)")
	pf.String("jit-url", "http://localhost:5000", "Base URL of the JIT variant")
	pf.String("aot-url", "http://localhost:5001", "Base URL of the AOT variant")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("history-db", "", "Sweep history database (default $HOME/.crudbench/history.db)")

	f := rootCmd.Flags()
	f.StringP("output", "o", "./benchmark-results", "Directory for results files")
	f.DurationP("duration", "d", 30*time.Second, "Timed phase per scenario")
	f.IntP("rate", "r", 100, "Target requests per second, sent in 100ms batches (rates below 10 run at 10)")
	f.Duration("cooldown", 5*time.Second, "Pause between scenarios")
	f.IntSlice("sizes", []int{1000, 10000, 100000}, "Dataset sizes to sweep")
	f.StringSlice("operations", []string{"CREATE", "READ", "UPDATE", "DELETE", "BULK_READ"}, "Operations to sweep")
	f.Bool("warmup", true, "Probe /health and pause before each timed phase")
	f.Duration("warmup-pause", runner.DefaultWarmupPause, "Pause after the warmup probe")
	f.Duration("timeout", 5*time.Minute, "Per-request timeout")
	f.Bool("tui", false, "Show an interactive progress view")
	f.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")

	bind := map[string]string{
		"jit_url":         "jit-url",
		"aot_url":         "aot-url",
		"log_level":       "log-level",
		"log_format":      "log-format",
		"history_db":      "history-db",
		"output_dir":      "output",
		"duration":        "duration",
		"rate":            "rate",
		"cooldown":        "cooldown",
		"dataset_sizes":   "sizes",
		"operations":      "operations",
		"warmup":          "warmup",
		"warmup_pause":    "warmup-pause",
		"request_timeout": "timeout",
		"tui":             "tui",
		"metrics_addr":    "metrics-addr",
	}
	for key, name := range bind {
		flag := pf.Lookup(name)
		if flag == nil {
			flag = f.Lookup(name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}
