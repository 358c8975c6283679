package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	return s
}

func TestLoadFrom_Defaults(t *testing.T) {
	s := tempStore(t)

	assert.NotEmpty(t, s.DownloadDir())
	assert.False(t, s.Headless())
	assert.Equal(t, 10*time.Second, s.WaitTimeout())
	assert.Equal(t, 30*time.Second, s.DownloadTimeout())
	assert.Equal(t, time.Second, s.DelayBetweenFiles())
	assert.False(t, s.LoggingEnabled())

	ok, errs := s.Validate()
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestSet_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := LoadFrom(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyChromeHeadless, true))
	require.NoError(t, s.Set(KeyWaitTimeout, 25))

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Headless())
	assert.Equal(t, 25*time.Second, reloaded.WaitTimeout())
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, reloaded.DownloadTimeout())
}

func TestValidate_WaitTimeoutOutOfRange(t *testing.T) {
	s := tempStore(t)
	s.v.Set(KeyWaitTimeout, 120)

	ok, errs := s.Validate()
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must be between 1 and 60")
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	s := tempStore(t)
	s.v.Set(KeyWaitTimeout, 0)
	s.v.Set(KeyDownloadTimeout, 500)
	s.v.Set(KeyDelayBetweenFiles, -1.0)
	s.v.Set(KeyDownloadDir, "")

	ok, errs := s.Validate()
	assert.False(t, ok)
	assert.Len(t, errs, 4)
}

func TestValidate_FractionalDelayAccepted(t *testing.T) {
	s := tempStore(t)
	s.v.Set(KeyDelayBetweenFiles, 0.5)

	ok, errs := s.Validate()
	assert.True(t, ok, "errors: %v", errs)
	assert.Equal(t, 500*time.Millisecond, s.DelayBetweenFiles())
}
