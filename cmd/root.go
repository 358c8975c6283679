package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"neat-backup/internal/config"
	"neat-backup/internal/logger"
)

// settings is loaded once before any command runs.
var settings *config.Store

var rootCmd = &cobra.Command{
	Use:   "neat-backup",
	Short: "Bulk export tool for Neat.com document cabinets",
	Long: `neat-backup logs into app.neat.com with a real browser, walks every
folder in the cabinet and downloads each document as a PDF into a matching
local directory tree. Re-runs skip files that are already complete.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		logFile := ""
		if settings.LoggingEnabled() {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			logFile = filepath.Join(dir, "neat-backup.log")
		}
		return logger.Setup(logFile)
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
