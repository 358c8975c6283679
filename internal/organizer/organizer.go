// Package organizer places exported files into the backup tree and decides,
// for each incoming file, whether to keep it, skip it as a duplicate, or
// write it under a numbered name. Identity is name plus byte size: the
// export can be re-run after partial failure and descriptions can coincide,
// so a filename alone never proves two files are the same.
package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// unsafeChars are replaced with '_' in every path segment. The slash is
// excluded on purpose: it delimits the remote folder hierarchy.
const unsafeChars = `<>:"\|?*`

// Decision says what to do with an incoming file.
type Decision int

const (
	// DecisionDownload means no matching file exists; write to Path.
	DecisionDownload Decision = iota
	// DecisionSkip means a file with this name and byte size already
	// exists at Path; nothing to do.
	DecisionSkip
)

// Resolution is the outcome of reconciling one incoming file against the
// backup tree.
type Resolution struct {
	Decision Decision
	// Path is the final destination (possibly suffixed with _1, _2, ...).
	Path string
}

// Organizer owns the backup tree rooted at Root.
type Organizer struct {
	Root string
}

// New returns an organizer rooted at root.
func New(root string) *Organizer {
	return &Organizer{Root: root}
}

// SanitizeSegment makes one path segment filesystem-safe.
func SanitizeSegment(name string) string {
	safe := name
	for _, c := range unsafeChars {
		safe = strings.ReplaceAll(safe, string(c), "_")
	}
	safe = strings.ReplaceAll(safe, "/", "_")
	return strings.TrimSpace(safe)
}

// SanitizePath sanitizes every segment of a '/'-delimited folder path while
// preserving the hierarchy itself.
func SanitizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = SanitizeSegment(seg)
	}
	return strings.Join(segments, "/")
}

// FolderDir returns (and creates) the destination directory for a folder
// path.
func (o *Organizer) FolderDir(folderPath string) (string, error) {
	dir := filepath.Join(o.Root, filepath.FromSlash(SanitizePath(folderPath)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}
	return dir, nil
}

// Resolve reconciles an incoming file of remoteSize bytes against the tree.
// Same name + same size means identity (skip); same name + different size
// walks the _1, _2, ... suffix sequence until it finds either a size match
// (skip) or an unused name (download). A file already on disk is never
// overwritten with different-sized content.
//
// remoteSize <= 0 means the size is unknown; the file is treated as new and
// written to the first unused name.
func (o *Organizer) Resolve(folderPath, baseName string, remoteSize int64) (*Resolution, error) {
	dir, err := o.FolderDir(folderPath)
	if err != nil {
		return nil, err
	}

	base := SanitizeSegment(baseName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(dir, base)
	for n := 0; ; n++ {
		if n > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		}

		info, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return &Resolution{Decision: DecisionDownload, Path: candidate}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", candidate, err)
		}

		if remoteSize > 0 && info.Size() == remoteSize {
			return &Resolution{Decision: DecisionSkip, Path: candidate}, nil
		}
		// Different size (or unknown size): keep probing suffixes.
	}
}

// Place moves an already-downloaded file into the tree, renaming with an
// incrementing numeric suffix on any name collision. This is the legacy path
// used by the DOM-scraping exporter, which only learns the file's identity
// after the browser has written it to the download directory.
func (o *Organizer) Place(sourcePath, folderPath string) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("source file: %w", err)
	}

	dir, err := o.FolderDir(folderPath)
	if err != nil {
		return "", err
	}

	base := SanitizeSegment(filepath.Base(sourcePath))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	dest := filepath.Join(dir, base)
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	if err := os.Rename(sourcePath, dest); err != nil {
		return "", fmt.Errorf("move into backup tree: %w", err)
	}
	return dest, nil
}
