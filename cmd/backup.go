package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neat-backup/internal/browser"
	"neat-backup/internal/config"
	"neat-backup/internal/credentials"
	"neat-backup/internal/downloader"
	"neat-backup/internal/engine"
	"neat-backup/internal/logger"
	"neat-backup/internal/organizer"
)

var backupCmd = &cobra.Command{
	Use:   "backup [folder]",
	Short: "Export every folder (or one named folder) to the backup directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		only := ""
		if len(args) == 1 {
			only = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats, err := runBackup(ctx, only)
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

// statusTail mirrors the status log, keeping the most recent warning and
// error lines so a failed run can show what went wrong without scrolling
// back through the whole log.
type statusTail struct {
	limit int
	lines []string
}

func (s *statusTail) record(message string, level logger.Level) {
	if level != logger.LevelWarning && level != logger.LevelError {
		return
	}
	s.lines = append(s.lines, message)
	if len(s.lines) > s.limit {
		s.lines = s.lines[len(s.lines)-s.limit:]
	}
}

func runBackup(ctx context.Context, only string) (*engine.BackupStats, error) {
	tail := &statusTail{limit: 10}
	logger.SetCallback(tail.record)
	defer logger.SetCallback(nil)

	if ok, problems := settings.Validate(); !ok {
		for _, p := range problems {
			logger.Error("%s", p)
		}
		return nil, fmt.Errorf("invalid settings, run `neat-backup configure`")
	}

	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	session, err := browser.Launch(browser.Options{
		Headless:    settings.Headless(),
		DownloadDir: settings.DownloadDir(),
		WaitTimeout: settings.WaitTimeout(),
	})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, err
	}

	folders, err := session.Folders(ctx)
	if err != nil {
		return nil, err
	}
	if only != "" {
		folders = filterFolders(folders, only)
		if len(folders) == 0 {
			return nil, fmt.Errorf("folder %q not found in cabinet", only)
		}
	}
	if len(folders) == 0 {
		return nil, errors.New("cabinet has no folders")
	}

	cookies, err := session.Cookies()
	if err != nil {
		return nil, err
	}
	fetcher, err := downloader.New(cookies, browser.URLFiles)
	if err != nil {
		return nil, err
	}

	org := organizer.New(settings.DownloadDir())
	eng := &engine.Engine{
		Lister:    session,
		Fetcher:   fetcher,
		Organizer: org,
		Fallback: &browser.DOMExporter{
			Session:         session,
			Organizer:       org,
			DownloadTimeout: settings.DownloadTimeout(),
		},
		DelayBetweenFiles: settings.DelayBetweenFiles(),
	}

	stats, err := eng.Run(ctx, folders)
	if stats != nil && !stats.Success() && len(tail.lines) > 0 {
		fmt.Println("\nRecent problems:")
		for _, line := range tail.lines {
			fmt.Printf("  %s\n", line)
		}
	}
	return stats, err
}

func loadCredentials() (*credentials.Credentials, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	creds, err := credentials.New(dir).Load()
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return nil, fmt.Errorf("no stored credentials, run `neat-backup configure` first")
		}
		return nil, err
	}
	return creds, nil
}

func filterFolders(folders []engine.FolderHandle, name string) []engine.FolderHandle {
	var out []engine.FolderHandle
	for _, f := range folders {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

func printSummary(stats *engine.BackupStats) {
	fmt.Println("")
	fmt.Println("========================================")
	fmt.Printf(" Run %s\n", stats.RunID)
	fmt.Printf(" Folders:    %d\n", stats.TotalFolders)
	fmt.Printf(" Files:      %d\n", stats.TotalFiles)
	fmt.Printf(" Successful: %d\n", stats.Successful)
	fmt.Printf(" Failed:     %d\n", stats.Failed)
	fmt.Println("========================================")
	for _, f := range stats.FailedFiles {
		fmt.Printf("  ✗ %s / %s: %s\n", f.Folder, f.Title, f.Error)
	}
}
