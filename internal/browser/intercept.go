package browser

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"neat-backup/internal/engine"
	"neat-backup/internal/logger"
	"neat-backup/internal/neat"
)

const (
	pageSizeSelector = `[data-testid="page-size-select"]`
	pageSize100      = `li[data-value="100"], option[value="100"]`

	// captureWindow bounds how long we keep listening after the folder
	// click. The app may fire several listing requests while the grid
	// virtual-scrolls, and later responses can supersede earlier partial
	// ones.
	captureWindow = 8 * time.Second
)

// OpenFolder clicks a folder in the tree and captures every response the app
// fetches from the entities endpoint while the grid loads. Listening starts
// before the click so the first response cannot be missed.
func (s *Session) OpenFolder(ctx context.Context, f engine.FolderHandle) (*engine.Listing, error) {
	var (
		mu     sync.Mutex
		bodies [][]byte
		seen   = make(map[proto.NetworkRequestID]bool)
	)

	collect := func(e *proto.NetworkResponseReceived) {
		if !strings.Contains(e.Response.URL, neat.EntitiesEndpoint) {
			return
		}
		if e.Response.Status != 200 {
			logger.Debug("entities response %d for %s", e.Response.Status, e.Response.URL)
			return
		}
		mu.Lock()
		if seen[e.RequestID] {
			mu.Unlock()
			return
		}
		seen[e.RequestID] = true
		mu.Unlock()

		body, err := readResponseBody(s.Page, e.RequestID)
		if err != nil {
			logger.Debug("read entities body: %v", err)
			return
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
	}

	// Subscribe first, then click, then drain inside the window. The event
	// loop stops when captureCtx is cancelled.
	captureCtx, cancel := context.WithTimeout(ctx, captureWindow)
	defer cancel()

	waitEvents := s.Page.Context(captureCtx).EachEvent(collect)
	done := make(chan struct{})
	go func() {
		waitEvents()
		close(done)
	}()

	clickErr := rod.Try(func() {
		row := s.folderRow(f)
		row.MustScrollIntoView()
		row.MustClick()
	})

	if clickErr == nil {
		// Render this folder's children in the sidebar now, so folderRow can
		// find them when the engine recurses into subfolders.
		s.ExpandFolder(f)
		// Best effort: a bigger page size means fewer partial responses.
		s.selectLargestPageSize()
	}

	<-captureCtx.Done()
	<-done

	if clickErr != nil {
		return nil, clickErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu.Lock()
	captured := bodies
	mu.Unlock()

	merged, err := mergeListings(captured)
	if err != nil {
		return nil, err
	}
	documents, folders := neat.Partition(merged)
	return &engine.Listing{Documents: documents, Folders: folders}, nil
}

// mergeListings parses every captured body and unions the entities across
// responses. Unparseable bodies are dropped rather than failing the folder:
// one good response is all that is needed.
func mergeListings(bodies [][]byte) ([]neat.Entity, error) {
	var all [][]neat.Entity
	for _, body := range bodies {
		entities, err := neat.ParseListing(body)
		if err != nil {
			logger.Debug("discarding malformed entities response: %v", err)
			continue
		}
		all = append(all, entities)
	}
	return neat.MergeUnion(all), nil
}

func readResponseBody(page *rod.Page, id proto.NetworkRequestID) ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(page)
	if err != nil {
		return nil, err
	}
	if res.Base64Encoded {
		return base64.StdEncoding.DecodeString(res.Body)
	}
	return []byte(res.Body), nil
}

// selectLargestPageSize bumps the grid's page size to 100 when the control
// exists. Purely an optimization, so every failure is swallowed.
func (s *Session) selectLargestPageSize() {
	_ = rod.Try(func() {
		p := s.Page.Timeout(3 * time.Second)
		p.MustElement(pageSizeSelector).MustClick()
		p.MustElement(pageSize100).MustClick()
	})
}
