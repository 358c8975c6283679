package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCountPattern(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Showing 23 items", "23"},
		{"Showing 1 item", "1"},
		{"Showing  456  items", "456"},
		{"Nothing to see here", ""},
		{"Showing many items", ""},
		{"Page 2 of 3, 40 items", ""},
	}
	for _, tc := range cases {
		got := ""
		if m := itemCountRe.FindStringSubmatch(tc.text); m != nil {
			got = m[1]
		}
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestSnapshotDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.pdf"), []byte("x"), 0o644))

	snap, err := snapshotDir(dir)
	require.NoError(t, err)
	assert.True(t, snap["old.pdf"])
	assert.False(t, snap["new.pdf"])
}

func TestSnapshotDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	snap, err := snapshotDir(dir)
	require.NoError(t, err)
	assert.Empty(t, snap)
	assert.DirExists(t, dir)
}
