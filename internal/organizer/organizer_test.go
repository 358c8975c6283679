package organizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2013 year TAX/Receipts: Q1", "2013 year TAX/Receipts_ Q1"},
		{"Plain", "Plain"},
		{`Bad<>:"\|?*Chars`, "Bad________Chars"},
		{"  padded  /inner ", "padded/inner"},
		{"a/b/c", "a/b/c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizePath(tt.in), "input %q", tt.in)
	}
}

func TestResolve_NewFile(t *testing.T) {
	o := New(t.TempDir())

	res, err := o.Resolve("Taxes", "A.pdf", 100)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "Taxes", "A.pdf"), res.Path)
}

func TestResolve_SameSizeSkips(t *testing.T) {
	o := New(t.TempDir())
	writeFile(t, filepath.Join(o.Root, "Taxes", "A.pdf"), 100)

	res, err := o.Resolve("Taxes", "A.pdf", 100)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "Taxes", "A.pdf"), res.Path)
}

func TestResolve_DifferentSizeSuffixes(t *testing.T) {
	o := New(t.TempDir())
	writeFile(t, filepath.Join(o.Root, "Taxes", "B.pdf"), 150)

	res, err := o.Resolve("Taxes", "B.pdf", 200)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "Taxes", "B_1.pdf"), res.Path)
}

func TestResolve_SuffixedVariantAlreadyMatches(t *testing.T) {
	o := New(t.TempDir())
	writeFile(t, filepath.Join(o.Root, "Taxes", "B.pdf"), 150)
	writeFile(t, filepath.Join(o.Root, "Taxes", "B_1.pdf"), 200)

	res, err := o.Resolve("Taxes", "B.pdf", 200)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "Taxes", "B_1.pdf"), res.Path)
}

func TestResolve_WalksPastMultipleMismatches(t *testing.T) {
	o := New(t.TempDir())
	writeFile(t, filepath.Join(o.Root, "F", "C.pdf"), 10)
	writeFile(t, filepath.Join(o.Root, "F", "C_1.pdf"), 20)
	writeFile(t, filepath.Join(o.Root, "F", "C_2.pdf"), 30)

	res, err := o.Resolve("F", "C.pdf", 40)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "F", "C_3.pdf"), res.Path)
}

// Unknown remote size: treat as new, land on the first unused name, and
// never point a download at an existing file.
func TestResolve_UnknownSizeNeverOverwrites(t *testing.T) {
	o := New(t.TempDir())
	writeFile(t, filepath.Join(o.Root, "F", "D.pdf"), 10)

	res, err := o.Resolve("F", "D.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, DecisionDownload, res.Decision)
	assert.Equal(t, filepath.Join(o.Root, "F", "D_1.pdf"), res.Path)
}

// A resolution may only ever target a path that is empty or size-matched;
// existing bytes of a different size are untouchable.
func TestResolve_CollisionNeverTargetsMismatchedFile(t *testing.T) {
	o := New(t.TempDir())
	existing := filepath.Join(o.Root, "F", "E.pdf")
	writeFile(t, existing, 123)

	for _, size := range []int64{1, 122, 124, 999} {
		res, err := o.Resolve("F", "E.pdf", size)
		require.NoError(t, err)
		if res.Decision == DecisionDownload {
			assert.NotEqual(t, existing, res.Path, "size %d would overwrite a mismatched file", size)
		}
	}
}

// Second run over an unchanged tree must skip everything it wrote the first
// time.
func TestResolve_Idempotent(t *testing.T) {
	o := New(t.TempDir())

	first, err := o.Resolve("F", "X.pdf", 300)
	require.NoError(t, err)
	require.Equal(t, DecisionDownload, first.Decision)
	writeFile(t, first.Path, 300)

	second, err := o.Resolve("F", "X.pdf", 300)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, second.Decision)
	assert.Equal(t, first.Path, second.Path)
}

func TestResolve_NestedFolderPath(t *testing.T) {
	o := New(t.TempDir())

	res, err := o.Resolve("2013 year TAX/Receipts: Q1", "R.pdf", 50)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(o.Root, "2013 year TAX", "Receipts_ Q1", "R.pdf"), res.Path)
}

func TestPlace_MovesAndSuffixes(t *testing.T) {
	o := New(t.TempDir())
	downloads := t.TempDir()

	src1 := filepath.Join(downloads, "scan.pdf")
	writeFile(t, src1, 10)
	dest1, err := o.Place(src1, "Inbox")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(o.Root, "Inbox", "scan.pdf"), dest1)
	assert.NoFileExists(t, src1)

	src2 := filepath.Join(downloads, "scan.pdf")
	writeFile(t, src2, 20)
	dest2, err := o.Place(src2, "Inbox")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(o.Root, "Inbox", "scan_1.pdf"), dest2)
}

func TestPlace_MissingSource(t *testing.T) {
	o := New(t.TempDir())
	_, err := o.Place(filepath.Join(t.TempDir(), "nope.pdf"), "Inbox")
	assert.Error(t, err)
}
