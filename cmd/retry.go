package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neat-backup/internal/logger"
)

// Retry re-runs the whole export. Completed files are skipped by the
// size check, so in practice only the previously failed ones transfer.
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-run the export, skipping files that are already complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("retrying: existing complete files will be skipped")
		stats, err := runBackup(ctx, "")
		if stats != nil {
			printSummary(stats)
		}
		if err != nil {
			return err
		}
		if stats != nil && !stats.Success() {
			os.Exit(1)
		}
		return nil
	},
}
