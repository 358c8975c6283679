package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"neat-backup/internal/engine"
)

func TestDedupFoldersByTestID(t *testing.T) {
	infos := []folderInfo{
		{Name: "Taxes", Selector: `[data-testid="mycabinet-1"]`},
		{Name: "Taxes", Selector: `[data-testid="mycabinet-1"]`}, // re-rendered row
		{Name: "Receipts", Selector: `[data-testid="mycabinet-2"]`},
	}

	got := dedupFolders(infos)
	assert.Equal(t, []engine.FolderHandle{
		{Name: "Taxes", Selector: `[data-testid="mycabinet-1"]`},
		{Name: "Receipts", Selector: `[data-testid="mycabinet-2"]`},
	}, got)
}

func TestDedupFoldersKeepsSameNameDistinctNodes(t *testing.T) {
	// Two folders can share a display name; they are still separate cabinet
	// nodes and both must be exported.
	infos := []folderInfo{
		{Name: "Archive", Selector: `[data-testid="mycabinet-7"]`},
		{Name: "Archive", Selector: `[data-testid="mycabinet-8"]`},
	}

	got := dedupFolders(infos)
	assert.Len(t, got, 2)
	assert.Equal(t, `[data-testid="mycabinet-7"]`, got[0].Selector)
	assert.Equal(t, `[data-testid="mycabinet-8"]`, got[1].Selector)
}

func TestDedupFoldersSkipsNameless(t *testing.T) {
	infos := []folderInfo{
		{Name: "", Selector: `[data-testid="mycabinet-3"]`},
		{Name: "Kept", Selector: ""},
		{Name: "Kept", Selector: ""}, // no selector: name is the only key left
	}

	got := dedupFolders(infos)
	assert.Equal(t, []engine.FolderHandle{{Name: "Kept"}}, got)
}
