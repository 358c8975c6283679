package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"neat-backup/internal/engine"
	"neat-backup/internal/logger"
	"neat-backup/internal/wait"
)

const (
	cabinetSelector    = `[data-testid="sidebar-mycabinet"]`
	folderRowSelector  = `[data-testid^="mycabinet-"]`
	folderNameSelector = `span[title]`
	chevronSelector    = `[class*="chevron"], [class*="expand"]`
)

// Folders enumerates the top-level folders in the cabinet sidebar. A folder
// row that cannot be read is logged and skipped rather than failing the
// whole enumeration.
func (s *Session) Folders(ctx context.Context) ([]engine.FolderHandle, error) {
	if err := s.expandCabinet(ctx); err != nil {
		// Not fatal: the caller decides what an empty cabinet means.
		logger.Warn("could not open the cabinet tree: %v", err)
		return nil, nil
	}

	rows, err := s.Page.Timeout(s.WaitTimeout).Elements(folderRowSelector)
	if err != nil {
		logger.Warn("no folder rows found: %v", err)
		return nil, nil
	}

	var infos []folderInfo
	for _, row := range rows {
		name, selector, err := folderFromRow(row)
		if err != nil {
			logger.Warn("skipping unreadable folder row: %v", err)
			continue
		}
		infos = append(infos, folderInfo{Name: name, Selector: selector})
	}

	folders := dedupFolders(infos)
	logger.Info("found %d folders in cabinet", len(folders))
	return folders, nil
}

type folderInfo struct {
	Name     string
	Selector string
}

// dedupFolders drops repeated sidebar rows. Identity is the row's test-id
// selector, not the display name: two folders may share a name but they are
// still distinct cabinet nodes.
func dedupFolders(infos []folderInfo) []engine.FolderHandle {
	var folders []engine.FolderHandle
	seen := make(map[string]bool)
	for _, info := range infos {
		if info.Name == "" {
			continue
		}
		key := info.Selector
		if key == "" {
			key = info.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		folders = append(folders, engine.FolderHandle{Name: info.Name, Selector: info.Selector})
	}
	return folders
}

// expandCabinet clicks the My Cabinet header unless its subtree is already
// open, then waits for the folder rows to render.
func (s *Session) expandCabinet(ctx context.Context) error {
	cabinet, err := s.Page.Timeout(s.WaitTimeout).Element(cabinetSelector)
	if err != nil {
		return fmt.Errorf("cabinet sidebar not found: %w", err)
	}

	open := false
	if cls, err := cabinet.Attribute("class"); err == nil && cls != nil {
		open = strings.Contains(*cls, "open") || strings.Contains(*cls, "expanded")
	}
	if !open {
		if err := cabinet.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("expand cabinet: %w", err)
		}
	}

	err = wait.For(ctx, wait.Options{Timeout: s.WaitTimeout, Interval: 250 * time.Millisecond}, func() (bool, error) {
		has, _, err := s.Page.Has(folderRowSelector)
		return has, err
	})
	if err != nil {
		return fmt.Errorf("folder tree did not render: %w", err)
	}
	return nil
}

// ExpandFolder opens a folder row's chevron so its subfolders render in the
// tree, which is what lets folderRow find them when the engine recurses.
// Already-expanded rows are left alone so the toggle cannot collapse them;
// a missing chevron means a leaf folder, which is fine.
func (s *Session) ExpandFolder(f engine.FolderHandle) {
	_ = rod.Try(func() {
		row := s.folderRow(f)
		if expanded, _ := row.Attribute("aria-expanded"); expanded != nil && *expanded == "true" {
			return
		}
		if cls, _ := row.Attribute("class"); cls != nil &&
			(strings.Contains(*cls, "open") || strings.Contains(*cls, "expanded")) {
			return
		}
		if has, chev, _ := row.Has(chevronSelector); has {
			chev.MustClick()
		}
	})
}

func (s *Session) folderRow(f engine.FolderHandle) *rod.Element {
	if f.Selector != "" {
		if el, err := s.Page.Timeout(s.WaitTimeout).Element(f.Selector); err == nil {
			return el
		}
	}
	// Fall back to matching the visible name.
	rows := s.Page.Timeout(s.WaitTimeout).MustElements(folderRowSelector)
	for _, row := range rows {
		name, _, err := folderFromRow(row)
		if err == nil && name == f.Name {
			return row
		}
	}
	panic(fmt.Errorf("folder %q not found in tree", f.Name))
}

func folderFromRow(row *rod.Element) (name, selector string, err error) {
	span, err := row.Element(folderNameSelector)
	if err != nil {
		return "", "", fmt.Errorf("name span: %w", err)
	}
	title, err := span.Attribute("title")
	if err != nil || title == nil {
		text, terr := span.Text()
		if terr != nil {
			return "", "", fmt.Errorf("folder name: %w", terr)
		}
		name = strings.TrimSpace(text)
	} else {
		name = strings.TrimSpace(*title)
	}

	if id, err := row.Attribute("data-testid"); err == nil && id != nil {
		selector = fmt.Sprintf(`[data-testid=%q]`, *id)
	}
	return name, selector, nil
}
