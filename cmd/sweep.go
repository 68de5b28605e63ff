package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"crudbench/internal/cli"
	"crudbench/internal/config"
	"crudbench/internal/logging"
	"crudbench/internal/runner"
	"crudbench/internal/storage"
	"crudbench/internal/sweep"
	"crudbench/internal/telemetry"
	"crudbench/internal/tui"
)

func runSweep(ctx context.Context, cfg *config.Config) error {
	// Broken setup is fatal before any load is generated.
	if err := cfg.Validate(); err != nil {
		return err
	}
	plan, err := cfg.Plan()
	if err != nil {
		return err
	}

	payloads, err := runner.NewPayloads(cfg.Payloads.Create, cfg.Payloads.Update)
	if err != nil {
		return err
	}

	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(runner.NewDispatcher(cfg.RequestTimeout, payloads), updates)
	r.WarmupPause = cfg.WarmupPause

	sw := sweep.New(r, storage.NewSink(cfg.OutputDir))

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		c := telemetry.NewCollector(reg)
		r.Observers = append(r.Observers, c)
		sw.Listeners = append(sw.Listeners, c)
		telemetry.Serve(ctx, cfg.MetricsAddr, reg)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var report *sweep.Report
	var runErr error
	if cfg.TUI {
		logFile, err := tuiLogFile(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()

		report, runErr = tui.Run(updates, cancel, func(l sweep.Listener) (*sweep.Report, error) {
			sw.Listeners = append(sw.Listeners, l)
			return sw.Run(runCtx, plan)
		})
		runErr = restoreTerminalLogging(cfg, runErr)
	} else {
		cli.PrintHeader(os.Stdout, plan, cfg.OutputDir)
		progress := cli.NewProgress(os.Stdout, updates)
		progress.Start(runCtx)
		sw.Listeners = append(sw.Listeners, progress)
		report, runErr = sw.Run(runCtx, plan)
	}

	interrupted := errors.Is(runErr, context.Canceled)
	if report != nil {
		cli.PrintSummary(os.Stdout, plan, report)
		recordHistory(cfg.HistoryDB, plan, report, interrupted)
	}
	if interrupted {
		logrus.Warn("interrupted, completed results were saved")
		return nil
	}
	return runErr
}

// tuiLogFile moves logging off the terminal while the UI owns it.
func tuiLogFile(cfg *config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.OutputDir, "crudbench.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat, f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// restoreTerminalLogging points logging back at stderr once the UI has exited.
// A failure there is reported unless the sweep already failed.
func restoreTerminalLogging(cfg *config.Config, runErr error) error {
	err := logging.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err == nil || runErr != nil {
		return runErr
	}
	return errors.Wrap(err, "restoring terminal logging")
}

func recordHistory(path string, plan sweep.Plan, report *sweep.Report, interrupted bool) {
	if path == "" {
		return
	}
	store, err := storage.OpenStore(path)
	if err != nil {
		logrus.WithError(err).Warn("sweep history unavailable")
		return
	}
	defer store.Close()

	if err := store.Save(storage.NewHistoryItem(plan, report, interrupted)); err != nil {
		logrus.WithError(err).Warn("recording sweep history failed")
	}
}
