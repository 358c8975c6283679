// Package neat models the records returned by the document service's
// internal listing endpoint. The endpoint is observed, not documented, so
// everything is validated at the deserialization boundary and anything
// unrecognized is quarantined as KindUnknown rather than failing later.
package neat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntitiesEndpoint is the internal listing API path the browser calls when a
// folder opens. Interception filters on this substring.
const EntitiesEndpoint = "/api/v5/entities"

// Kind is the tagged variant of an entity.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocument
	KindSubfolder
)

// Entity is one remote item from a listing response. Entities are read-only
// snapshots, valid only for the folder visit that produced them; the
// download URL is a time-limited signed link.
type Entity struct {
	Webid       string `json:"webid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Trashed     bool   `json:"trashed"`
	DownloadURL string `json:"download_url"`
}

// Kind classifies the entity by its observed type field. "document" and
// "receipt" are the downloadable item types; "Folder" is navigable.
func (e Entity) Kind() Kind {
	switch e.Type {
	case "document", "receipt":
		return KindDocument
	case "Folder":
		return KindSubfolder
	default:
		return KindUnknown
	}
}

// Title is the display title used in logs and error records.
func (e Entity) Title() string {
	if e.Description == "" {
		return e.Name
	}
	return e.Name + " - " + e.Description
}

// FileName is the on-disk base name for an exported document.
func (e Entity) FileName() string {
	return e.Title() + ".pdf"
}

type listingResponse struct {
	Entities []Entity `json:"entities"`
}

// ParseListing decodes one listing response body. A response with zero
// entities is a valid observation, so the empty slice is returned without
// error; a body missing the entities field entirely is rejected.
func ParseListing(body []byte) ([]Entity, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode listing response: %w", err)
	}
	entitiesRaw, ok := raw["entities"]
	if !ok {
		return nil, fmt.Errorf("listing response has no entities field")
	}
	var entities []Entity
	if err := json.Unmarshal(entitiesRaw, &entities); err != nil {
		return nil, fmt.Errorf("decode entities array: %w", err)
	}
	for i, e := range entities {
		if strings.TrimSpace(e.Webid) == "" {
			return nil, fmt.Errorf("entity %d has no webid", i)
		}
	}
	return entities, nil
}

// Partition splits entities into downloadable documents and navigable
// subfolders. Trashed items and unrecognized types are excluded from both.
func Partition(entities []Entity) (documents, folders []Entity) {
	for _, e := range entities {
		if e.Trashed {
			continue
		}
		switch e.Kind() {
		case KindDocument:
			documents = append(documents, e)
		case KindSubfolder:
			folders = append(folders, e)
		}
	}
	return documents, folders
}

// MergeUnion combines the entities of every intercepted response, reconciling
// by webid (first occurrence wins, first-seen order preserved). Several
// responses can arrive for one folder open — the main content pane and a
// sidebar preview hit the same endpoint — and the union covers both.
func MergeUnion(responses [][]Entity) []Entity {
	var merged []Entity
	seen := make(map[string]bool)
	for _, resp := range responses {
		for _, e := range resp {
			if seen[e.Webid] {
				continue
			}
			seen[e.Webid] = true
			merged = append(merged, e)
		}
	}
	return merged
}

// MergeLargest keeps only the single response with the most entities, on the
// theory that the main content pane always carries the full page while the
// sidebar carries a subset. Kept for comparison against MergeUnion; the
// helpers default to union.
func MergeLargest(responses [][]Entity) []Entity {
	var largest []Entity
	for _, resp := range responses {
		if len(resp) > len(largest) {
			largest = resp
		}
	}
	return largest
}
