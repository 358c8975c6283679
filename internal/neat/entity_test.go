package neat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListing(t *testing.T) {
	body := []byte(`{
		"entities": [
			{"webid": "a1", "name": "Invoice", "description": "March", "type": "document", "trashed": false, "download_url": "https://cdn.example/a1"},
			{"webid": "b2", "name": "Receipts", "type": "Folder"},
			{"webid": "c3", "name": "Old", "type": "document", "trashed": true}
		]
	}`)

	entities, err := ParseListing(body)
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, "a1", entities[0].Webid)
	assert.Equal(t, KindDocument, entities[0].Kind())
	assert.Equal(t, KindSubfolder, entities[1].Kind())
	assert.True(t, entities[2].Trashed)
}

func TestParseListing_ZeroEntitiesIsValid(t *testing.T) {
	entities, err := ParseListing([]byte(`{"entities": []}`))
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestParseListing_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing entities field", `{"items": []}`},
		{"entity without webid", `{"entities": [{"name": "x", "type": "document"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListing([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEntityKind_UnrecognizedTypeIsUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, Entity{Type: "contact"}.Kind())
	assert.Equal(t, KindUnknown, Entity{}.Kind())
	assert.Equal(t, KindDocument, Entity{Type: "receipt"}.Kind())
}

func TestPartition(t *testing.T) {
	entities := []Entity{
		{Webid: "1", Type: "document"},
		{Webid: "2", Type: "receipt"},
		{Webid: "3", Type: "Folder"},
		{Webid: "4", Type: "document", Trashed: true},
		{Webid: "5", Type: "Folder", Trashed: true},
		{Webid: "6", Type: "mystery"},
	}

	docs, folders := Partition(entities)
	require.Len(t, docs, 2)
	require.Len(t, folders, 1)
	assert.Equal(t, "3", folders[0].Webid)
}

func TestFileName(t *testing.T) {
	e := Entity{Name: "Invoice", Description: "March"}
	assert.Equal(t, "Invoice - March.pdf", e.FileName())

	noDesc := Entity{Name: "Invoice"}
	assert.Equal(t, "Invoice.pdf", noDesc.FileName())
}

// The same folder open can produce one response for the content pane and one
// for the sidebar preview. The two historical resolution strategies disagree
// when both are nonzero; both are pinned down here.
func makeEntities(prefix string, n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = Entity{Webid: fmt.Sprintf("%s-%d", prefix, i), Type: "document"}
	}
	return out
}

func TestMergeLargest_TwoResponses(t *testing.T) {
	sidebar := makeEntities("s", 12)
	main := makeEntities("m", 23)

	merged := MergeLargest([][]Entity{sidebar, main})
	assert.Len(t, merged, 23)
	assert.Equal(t, "m-0", merged[0].Webid)
}

func TestMergeUnion_TwoResponses(t *testing.T) {
	sidebar := makeEntities("s", 12)
	main := makeEntities("m", 23)

	merged := MergeUnion([][]Entity{sidebar, main})
	// Disjoint webids: union keeps all of both.
	assert.Len(t, merged, 35)
}

func TestMergeUnion_OverlappingWebidsDeduplicated(t *testing.T) {
	main := makeEntities("x", 23)
	sidebar := main[:12] // sidebar shows a prefix of the same items

	merged := MergeUnion([][]Entity{sidebar, main})
	assert.Len(t, merged, 23)
	// First-seen order: the sidebar's items keep their positions.
	assert.Equal(t, "x-0", merged[0].Webid)
	assert.Equal(t, "x-22", merged[22].Webid)
}

func TestMerge_NoResponses(t *testing.T) {
	assert.Empty(t, MergeUnion(nil))
	assert.Empty(t, MergeLargest(nil))
}
