package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"crudbench/internal/cli"
	"crudbench/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HistoryDB == "" {
			return errors.New("history is disabled (history_db is empty)")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := storage.OpenStore(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List(limit)
		if err != nil {
			return err
		}
		cli.PrintHistory(os.Stdout, items)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sweeps to show")
}
