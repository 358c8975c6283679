package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"neat-backup/internal/engine"
	"neat-backup/internal/logger"
	"neat-backup/internal/organizer"
	"neat-backup/internal/wait"
)

const (
	gridRowSelector     = `[data-testid^="grid-row-"]`
	rowCheckboxSelector = `input[type="checkbox"]`
	rowTitleSelector    = `[data-testid="grid-cell-name"]`
	exportButton        = `button[data-testid="toolbar-export"]`
	exportAsPDFOption   = `[data-testid="export-image-as-pdf"]`
	downloadPDFButton   = `[data-testid="download-pdf-file"]`
	modalCloseButton    = `[data-testid="modal-close"], button[aria-label="Close"]`
	nextPageButton      = `button[aria-label="Next page"]`
)

var itemCountRe = regexp.MustCompile(`Showing\s+(\d+)\s+items?`)

// DOMExporter drives the per-document export dialog as a fallback when no
// listing could be intercepted. It is slow (one modal round-trip per
// document) but only depends on what is visible on screen.
type DOMExporter struct {
	Session   *Session
	Organizer *organizer.Organizer

	// DownloadTimeout bounds how long one exported PDF may take to land in
	// the download directory.
	DownloadTimeout time.Duration
}

// ExportFolder walks the visible grid page by page, exporting each row
// through the Export > Image as PDF dialog and moving the result into the
// folder's directory.
func (d *DOMExporter) ExportFolder(ctx context.Context, f engine.FolderHandle, folderPath string) (engine.ExportResult, error) {
	var result engine.ExportResult

	total := d.itemCount()
	if total == 0 {
		logger.Info("%s shows no items on screen", folderPath)
		return result, nil
	}
	logger.Info("UI export of %s: %d items", folderPath, total)

	if _, err := d.Organizer.FolderDir(folderPath); err != nil {
		return result, fmt.Errorf("create folder directory: %w", err)
	}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rows, err := d.visibleRows(ctx)
		if err != nil {
			return result, fmt.Errorf("page %d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}

		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			title := rowTitle(row, i)
			if err := d.exportRow(ctx, row, folderPath); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", title, err))
				result.FailedFiles = append(result.FailedFiles, engine.FailedFile{
					Folder:   folderPath,
					Selector: f.Selector,
					Index:    i,
					Title:    title,
					Error:    err.Error(),
				})
				logger.Error("UI export failed for %s: %v", title, err)
			} else {
				result.Successful++
			}
		}

		if !d.nextPage() {
			break
		}
	}

	return result, nil
}

// itemCount reads the "Showing N items" banner. Zero when the banner is
// absent or unreadable.
func (d *DOMExporter) itemCount() int {
	var text string
	err := rod.Try(func() {
		text = d.Session.Page.Timeout(3 * time.Second).MustElementR("*", "Showing").MustText()
	})
	if err != nil {
		return 0
	}
	m := itemCountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// visibleRows scrolls the grid until the row count stops growing for three
// consecutive passes, then returns what rendered. The grid virtualizes rows,
// so a single query would only see the first screenful.
func (d *DOMExporter) visibleRows(ctx context.Context) ([]*rod.Element, error) {
	var rows []*rod.Element
	stagnant := 0
	last := -1
	for stagnant < 3 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		rows, err = d.Session.Page.Timeout(d.Session.WaitTimeout).Elements(gridRowSelector)
		if err != nil {
			return nil, fmt.Errorf("query grid rows: %w", err)
		}
		if len(rows) == last {
			stagnant++
		} else {
			stagnant = 0
			last = len(rows)
		}
		if len(rows) > 0 {
			_ = rod.Try(func() {
				rows[len(rows)-1].MustScrollIntoView()
			})
		}
		if err := wait.Sleep(ctx, nil, 500*time.Millisecond); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// exportRow selects one row, walks the export dialog and waits for the PDF
// to appear in the download directory, then files it.
func (d *DOMExporter) exportRow(ctx context.Context, row *rod.Element, folderPath string) error {
	before, err := snapshotDir(d.Session.DownloadDir)
	if err != nil {
		return fmt.Errorf("scan download dir: %w", err)
	}

	err = rod.Try(func() {
		row.MustElement(rowCheckboxSelector).MustClick()
		p := d.Session.Page.Timeout(d.Session.WaitTimeout)
		p.MustElement(exportButton).MustClick()
		p.MustElement(exportAsPDFOption).MustClick()
		p.MustElement(downloadPDFButton).MustClick()
	})
	if err != nil {
		d.Session.DismissOverlays()
		return fmt.Errorf("export dialog: %w", err)
	}

	downloaded, err := d.waitForDownload(ctx, before)
	d.closeModal()
	d.deselectRow(row)
	if err != nil {
		return err
	}

	if _, err := d.Organizer.Place(downloaded, folderPath); err != nil {
		return fmt.Errorf("file download: %w", err)
	}
	return nil
}

// waitForDownload polls the download directory for a finished PDF that was
// not there before the export click. An in-flight .crdownload keeps the wait
// alive.
func (d *DOMExporter) waitForDownload(ctx context.Context, before map[string]bool) (string, error) {
	timeout := d.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var found string
	err := wait.For(ctx, wait.Options{Timeout: timeout, Interval: 500 * time.Millisecond}, func() (bool, error) {
		entries, err := os.ReadDir(d.Session.DownloadDir)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			name := e.Name()
			if before[name] || e.IsDir() {
				continue
			}
			if strings.HasSuffix(name, ".crdownload") {
				return false, nil // still downloading
			}
			if strings.HasSuffix(strings.ToLower(name), ".pdf") {
				found = filepath.Join(d.Session.DownloadDir, name)
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", fmt.Errorf("download did not finish: %w", err)
	}
	return found, nil
}

func (d *DOMExporter) closeModal() {
	_ = rod.Try(func() {
		d.Session.Page.Timeout(3 * time.Second).MustElement(modalCloseButton).MustClick()
	})
	d.Session.DismissOverlays()
}

func (d *DOMExporter) deselectRow(row *rod.Element) {
	_ = rod.Try(func() {
		if box := row.MustElement(rowCheckboxSelector); box.MustProperty("checked").Bool() {
			box.MustClick()
		}
	})
}

// nextPage advances pagination, reporting false on the last page.
func (d *DOMExporter) nextPage() bool {
	advanced := false
	_ = rod.Try(func() {
		btn := d.Session.Page.Timeout(2 * time.Second).MustElement(nextPageButton)
		if dis, _ := btn.Attribute("disabled"); dis == nil {
			btn.MustClick()
			advanced = true
		}
	})
	return advanced
}

func rowTitle(row *rod.Element, index int) string {
	var title string
	err := rod.Try(func() {
		title = strings.TrimSpace(row.MustElement(rowTitleSelector).MustText())
	})
	if err != nil || title == "" {
		return fmt.Sprintf("item %d", index+1)
	}
	return title
}

func snapshotDir(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			return map[string]bool{}, nil
		}
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out, nil
}
