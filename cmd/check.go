package cmd

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"crudbench/internal/cli"
	"crudbench/internal/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the /health endpoint of every configured variant",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := runner.NewDispatcher(5*time.Second, nil)

		down := 0
		for _, variant := range cfg.ResolvedVariants() {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			err := d.Probe(ctx, variant.URL)
			cancel()

			cli.PrintCheck(os.Stdout, variant, err)
			if err != nil {
				down++
			}
		}
		if down > 0 {
			return errors.Errorf("%d variant(s) unreachable", down)
		}
		return nil
	},
}
