package engine

import "github.com/google/uuid"

// FailedFile records one document that could not be exported, with enough
// context to find it again in the web UI.
type FailedFile struct {
	Folder   string `json:"folder"`
	Selector string `json:"selector,omitempty"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Error    string `json:"error"`
}

// ExportResult summarizes one folder's export, subfolders included.
type ExportResult struct {
	Successful  int
	Failed      int
	Errors      []string
	FailedFiles []FailedFile
}

func (r *ExportResult) merge(other ExportResult) {
	r.Successful += other.Successful
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
	r.FailedFiles = append(r.FailedFiles, other.FailedFiles...)
}

// BackupStats is the whole-run summary printed at the end and written to the
// run log.
type BackupStats struct {
	RunID        string       `json:"run_id"`
	TotalFolders int          `json:"total_folders"`
	TotalFiles   int          `json:"total_files"`
	Successful   int          `json:"successful"`
	Failed       int          `json:"failed"`
	Errors       []string     `json:"errors,omitempty"`
	FailedFiles  []FailedFile `json:"failed_files,omitempty"`
}

func newBackupStats() *BackupStats {
	return &BackupStats{RunID: uuid.NewString()}
}

// Success reports whether every attempted file made it to disk.
func (s *BackupStats) Success() bool {
	return s.Failed == 0
}
