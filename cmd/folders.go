package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neat-backup/internal/browser"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List the cabinet folders without downloading anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		creds, err := loadCredentials()
		if err != nil {
			return err
		}

		session, err := browser.Launch(browser.Options{
			Headless:    settings.Headless(),
			DownloadDir: settings.DownloadDir(),
			WaitTimeout: settings.WaitTimeout(),
		})
		if err != nil {
			return err
		}
		defer session.Close()

		if err := session.Login(ctx, creds.Username, creds.Password); err != nil {
			return err
		}

		folders, err := session.Folders(ctx)
		if err != nil {
			return err
		}
		for _, f := range folders {
			fmt.Println(f.Name)
		}
		return nil
	},
}
