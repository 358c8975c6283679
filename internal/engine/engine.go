// Package engine walks the folder tree and exports every document in it,
// preferring direct HTTP downloads over the export UI. The browser specifics
// hide behind small interfaces so the traversal and reconciliation logic can
// be tested without a browser.
package engine

import (
	"context"
	"fmt"
	"time"

	"neat-backup/internal/logger"
	"neat-backup/internal/neat"
	"neat-backup/internal/organizer"
	"neat-backup/internal/wait"
)

// FolderHandle identifies one top-level or nested folder in the cabinet tree.
type FolderHandle struct {
	Name     string
	Selector string
}

// Listing is everything the entities endpoint reported for one open folder.
type Listing struct {
	Documents []neat.Entity
	Folders   []neat.Entity
}

// Lister opens a folder in the browser and returns its intercepted listing.
type Lister interface {
	OpenFolder(ctx context.Context, f FolderHandle) (*Listing, error)
}

// FileFetcher downloads document payloads out-of-band with session cookies.
type FileFetcher interface {
	ProbeSize(ctx context.Context, url string) (int64, error)
	Download(ctx context.Context, url, destPath string) error
}

// Fallback exports a folder through the web UI when interception yields
// nothing usable. Optional.
type Fallback interface {
	ExportFolder(ctx context.Context, f FolderHandle, folderPath string) (ExportResult, error)
}

// Engine exports folders to the local organizer tree.
type Engine struct {
	Lister    Lister
	Fetcher   FileFetcher
	Fallback  Fallback
	Organizer *organizer.Organizer
	Clock     wait.Clock

	// DelayBetweenFiles paces requests so they look like a human clicking.
	DelayBetweenFiles time.Duration
}

// ExportFolder downloads every document in f, then recurses into its
// subfolders under parentPath. One bad file does not stop the folder; one
// empty interception does not stop the run.
func (e *Engine) ExportFolder(ctx context.Context, f FolderHandle, parentPath string) (ExportResult, error) {
	var result ExportResult

	folderPath := f.Name
	if parentPath != "" {
		folderPath = parentPath + "/" + f.Name
	}

	listing, err := e.Lister.OpenFolder(ctx, f)
	if err != nil {
		return result, fmt.Errorf("open folder %q: %w", f.Name, err)
	}

	if len(listing.Documents) == 0 && len(listing.Folders) == 0 {
		if e.Fallback != nil {
			logger.Warn("no listing captured for %s, falling back to UI export", folderPath)
			return e.Fallback.ExportFolder(ctx, f, folderPath)
		}
		logger.Info("%s is empty", folderPath)
		return result, nil
	}

	logger.Info("%s: %d documents, %d subfolders", folderPath, len(listing.Documents), len(listing.Folders))

	if _, err := e.Organizer.FolderDir(folderPath); err != nil {
		return result, fmt.Errorf("create folder directory: %w", err)
	}

	for i, doc := range listing.Documents {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := e.exportDocument(ctx, folderPath, doc); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", doc.Title(), err))
			result.FailedFiles = append(result.FailedFiles, FailedFile{
				Folder:   folderPath,
				Selector: f.Selector,
				Index:    i,
				Title:    doc.Title(),
				Error:    err.Error(),
			})
			logger.Error("failed %s: %v", doc.Title(), err)
		} else {
			result.Successful++
		}

		if e.DelayBetweenFiles > 0 && i < len(listing.Documents)-1 {
			if err := wait.Sleep(ctx, e.Clock, e.DelayBetweenFiles); err != nil {
				return result, err
			}
		}
	}

	// Every document failed: the session is likely dead, stop descending.
	if len(listing.Documents) > 0 && result.Successful == 0 && result.Failed == len(listing.Documents) {
		return result, fmt.Errorf("all %d documents in %q failed", result.Failed, folderPath)
	}

	for _, sub := range listing.Folders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		// The sidebar row carries the bare name, so the handle must too;
		// Title() is only for logs.
		subResult, err := e.ExportFolder(ctx, FolderHandle{Name: sub.Name}, folderPath)
		result.merge(subResult)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.Title(), err))
		}
	}

	return result, nil
}

func (e *Engine) exportDocument(ctx context.Context, folderPath string, doc neat.Entity) error {
	if doc.DownloadURL == "" {
		return fmt.Errorf("No download URL for %q", doc.Title())
	}

	remoteSize, err := e.Fetcher.ProbeSize(ctx, doc.DownloadURL)
	if err != nil {
		logger.Debug("size probe failed for %s: %v", doc.Title(), err)
		remoteSize = 0
	}

	res, err := e.Organizer.Resolve(folderPath, doc.FileName(), remoteSize)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	if res.Decision == organizer.DecisionSkip {
		logger.Debug("already have %s, skipping download", res.Path)
		return nil
	}

	if err := e.Fetcher.Download(ctx, doc.DownloadURL, res.Path); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	logger.Success("saved %s", res.Path)
	return nil
}

// Run exports each folder in order and aggregates the run summary. Folder
// failures are recorded, not fatal, so one collapsed folder does not scrap
// the rest of the night's work.
func (e *Engine) Run(ctx context.Context, folders []FolderHandle) (*BackupStats, error) {
	stats := newBackupStats()
	stats.TotalFolders = len(folders)

	logger.Info("starting backup run %s over %d folders", stats.RunID, len(folders))

	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		result, err := e.ExportFolder(ctx, f, "")
		stats.TotalFiles += result.Successful + result.Failed
		stats.Successful += result.Successful
		stats.Failed += result.Failed
		stats.Errors = append(stats.Errors, result.Errors...)
		stats.FailedFiles = append(stats.FailedFiles, result.FailedFiles...)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			logger.Error("folder %s: %v", f.Name, err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", f.Name, err))
		}
	}

	if stats.Success() {
		logger.Success("backup complete: %d files across %d folders", stats.Successful, stats.TotalFolders)
	} else {
		logger.Warn("backup finished with %d failures out of %d files", stats.Failed, stats.TotalFiles)
	}
	return stats, nil
}
