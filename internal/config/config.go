// Package config holds the small set of operational settings, persisted as a
// JSON file in the user's config directory. Defaults are merged under any
// persisted overrides; setters write through immediately.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Recognized setting keys. Unrecognized keys in the config file are preserved
// on save but never read.
const (
	KeyDownloadDir       = "download_dir"
	KeyChromeHeadless    = "chrome_headless"
	KeyWaitTimeout       = "wait_timeout"
	KeyDownloadTimeout   = "download_timeout"
	KeyDelayBetweenFiles = "delay_between_files"
	KeyEnableLogging     = "enable_logging"
)

const (
	minWaitTimeout     = 1
	maxWaitTimeout     = 60
	minDownloadTimeout = 5
	maxDownloadTimeout = 300
	minFileDelay       = 0.0
	maxFileDelay       = 10.0
)

// Store is a file-backed settings store. Each Store owns its own viper
// instance; nothing here is ambient.
type Store struct {
	v    *viper.Viper
	path string
}

// Dir returns the per-user config directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".neat-backup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Load reads (or initializes) the settings file in the default config
// directory.
func Load() (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, "config.json"))
}

// LoadFrom reads the settings file at an explicit path (useful for testing).
func LoadFrom(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: first run uses defaults only.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading settings file: %w", err)
			}
		}
	}

	return &Store{v: v, path: path}, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault(KeyDownloadDir, filepath.Join(home, "NeatBackup"))
	v.SetDefault(KeyChromeHeadless, false)
	v.SetDefault(KeyWaitTimeout, 10)
	v.SetDefault(KeyDownloadTimeout, 30)
	v.SetDefault(KeyDelayBetweenFiles, 1.0)
	v.SetDefault(KeyEnableLogging, false)
}

// Get returns the raw value for a key, falling back to the default.
func (s *Store) Get(key string) interface{} { return s.v.Get(key) }

// Set updates a single setting and persists the whole file immediately.
func (s *Store) Set(key string, value interface{}) error {
	s.v.Set(key, value)
	return s.Save()
}

// Save rewrites the settings file wholesale.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// DownloadDir is the root of the organized backup tree.
func (s *Store) DownloadDir() string { return s.v.GetString(KeyDownloadDir) }

// Headless reports whether the browser should run without a visible window.
func (s *Store) Headless() bool { return s.v.GetBool(KeyChromeHeadless) }

// WaitTimeout is the per-element presence wait.
func (s *Store) WaitTimeout() time.Duration {
	return time.Duration(s.v.GetInt(KeyWaitTimeout)) * time.Second
}

// DownloadTimeout bounds download-completion polling.
func (s *Store) DownloadTimeout() time.Duration {
	return time.Duration(s.v.GetInt(KeyDownloadTimeout)) * time.Second
}

// DelayBetweenFiles is the pacing pause after each file.
func (s *Store) DelayBetweenFiles() time.Duration {
	return time.Duration(s.v.GetFloat64(KeyDelayBetweenFiles) * float64(time.Second))
}

// LoggingEnabled reports whether the file log sink is on.
func (s *Store) LoggingEnabled() bool { return s.v.GetBool(KeyEnableLogging) }

// Validate checks every numeric setting against its allowed range. It returns
// false plus one human-readable message per violation; it never aborts on the
// first problem.
func (s *Store) Validate() (bool, []string) {
	var errs []string

	if wt := s.v.GetInt(KeyWaitTimeout); wt < minWaitTimeout || wt > maxWaitTimeout {
		errs = append(errs, fmt.Sprintf("%s must be between %d and %d seconds (got %d)",
			KeyWaitTimeout, minWaitTimeout, maxWaitTimeout, wt))
	}
	if dt := s.v.GetInt(KeyDownloadTimeout); dt < minDownloadTimeout || dt > maxDownloadTimeout {
		errs = append(errs, fmt.Sprintf("%s must be between %d and %d seconds (got %d)",
			KeyDownloadTimeout, minDownloadTimeout, maxDownloadTimeout, dt))
	}
	if d := s.v.GetFloat64(KeyDelayBetweenFiles); d < minFileDelay || d > maxFileDelay {
		errs = append(errs, fmt.Sprintf("%s must be between %g and %g seconds (got %g)",
			KeyDelayBetweenFiles, minFileDelay, maxFileDelay, d))
	}
	if s.DownloadDir() == "" {
		errs = append(errs, fmt.Sprintf("%s must not be empty", KeyDownloadDir))
	}

	return len(errs) == 0, errs
}
