package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"crudbench/internal/stub"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local in-memory CRUD target",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		port, _ := f.GetInt("port")
		jitter, _ := f.GetDuration("jitter")
		errorRate, _ := f.GetFloat64("error-rate")
		seed, _ := f.GetInt("seed")
		missingOK, _ := f.GetBool("missing-ok")

		srv := stub.Start(stub.ServerConfig{
			Port:      port,
			Jitter:    jitter,
			ErrorRate: errorRate,
			Seed:      seed,
			MissingOK: missingOK,
		})

		<-cmd.Context().Done()
		logrus.Info("stopping stub target")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	f := stubCmd.Flags()
	f.IntP("port", "p", 5000, "Port to listen on")
	f.Duration("jitter", 0, "Random extra latency per product call, up to this value")
	f.Float64("error-rate", 0, "Fraction of product calls answered with 500")
	f.Int("seed", 1000, "Products created at startup")
	f.Bool("missing-ok", false, "Answer updates and deletes of unknown ids with success")
}
