package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"neat-backup/internal/config"
	"neat-backup/internal/credentials"
	"neat-backup/internal/logger"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set credentials and backup settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("========================================")
		fmt.Println(" Neat.com backup configuration")
		fmt.Println("========================================")
		fmt.Println("")

		// Downloads root
		dir := prompt("Backup directory", settings.DownloadDir())
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve backup directory: %w", err)
		}
		if err := settings.Set(config.KeyDownloadDir, abs); err != nil {
			return err
		}

		// Browser mode
		headless := promptBool("Run the browser headless (no window)?", settings.Headless())
		if err := settings.Set(config.KeyChromeHeadless, headless); err != nil {
			return err
		}

		// Pacing
		delay := promptFloat("Delay between files in seconds", settings.Get(config.KeyDelayBetweenFiles))
		if err := settings.Set(config.KeyDelayBetweenFiles, delay); err != nil {
			return err
		}

		if ok, problems := settings.Validate(); !ok {
			for _, p := range problems {
				logger.Warn("%s", p)
			}
			return fmt.Errorf("settings did not validate, fix the values above")
		}
		logger.Success("settings saved to %s", settings.Path())

		// Credentials
		if !promptBool("Store Neat.com credentials now?", true) {
			return nil
		}
		username := prompt("Neat.com email", "")
		password, err := promptPassword("Neat.com password")
		if err != nil {
			return err
		}
		if username == "" || password == "" {
			return fmt.Errorf("both email and password are required")
		}

		dirCfg, err := config.Dir()
		if err != nil {
			return err
		}
		if err := credentials.New(dirCfg).Save(username, password); err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}
		logger.Success("credentials stored encrypted in %s", dirCfg)
		return nil
	},
}

func prompt(label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptBool(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	ans := strings.ToLower(prompt(fmt.Sprintf("%s (%s)", label, hint), ""))
	if ans == "" {
		return def
	}
	return ans == "y" || ans == "yes"
}

func promptFloat(label string, def interface{}) float64 {
	defVal := 0.0
	switch v := def.(type) {
	case float64:
		defVal = v
	case int:
		defVal = float64(v)
	}
	ans := prompt(label, strconv.FormatFloat(defVal, 'g', -1, 64))
	f, err := strconv.ParseFloat(ans, 64)
	if err != nil {
		return defVal
	}
	return f
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
