// Package downloader fetches documents directly over HTTP using the browser
// session's cookies, bypassing the export UI entirely once a signed
// download URL is known.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"neat-backup/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// StatusError reports a non-200 response to a download request.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Client downloads files with the authenticated session cookies attached.
type Client struct {
	// probe has an overall timeout; stream only bounds the response headers
	// so large bodies are never cut off mid-transfer.
	probe     *http.Client
	stream    *http.Client
	userAgent string
	retry     RetryConfig
}

// New builds a client whose cookie jar carries the given session cookies for
// their respective domains.
func New(cookies []*http.Cookie, seedURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if len(cookies) > 0 && seedURL != "" {
		u, err := url.Parse(seedURL)
		if err != nil {
			return nil, fmt.Errorf("parse seed URL: %w", err)
		}
		jar.SetCookies(u, cookies)
	}

	streamTransport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &Client{
		probe: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		stream: &http.Client{
			Jar:       jar,
			Transport: streamTransport,
		},
		userAgent: defaultUserAgent,
		retry:     DefaultRetryConfig(),
	}, nil
}

// ProbeSize reads the remote byte size from a streaming GET's Content-Length
// header, closing the connection without consuming the body. The endpoint
// does not answer HEAD reliably, so this is the cheapest existence check
// available. Returns 0 when no Content-Length is present.
func (c *Client) ProbeSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.probe.Do(req)
	if err != nil {
		return 0, fmt.Errorf("size probe: %w", err)
	}
	// Close immediately: only the headers matter.
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{Code: resp.StatusCode}
	}
	if resp.ContentLength < 0 {
		return 0, nil
	}
	return resp.ContentLength, nil
}

// Download fetches url into destPath. The body lands in a temp file in the
// destination directory and is renamed into place only when fully written,
// so a destination file is either absent or complete. Transient network
// errors are retried with backoff; HTTP error statuses are not.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	_, err := Retry(ctx, c.retry, func() (struct{}, error) {
		return struct{}{}, c.downloadOnce(ctx, url, destPath)
	}, func(err error) bool {
		_, isStatus := err.(*StatusError)
		return !isStatus
	})
	return err
}

func (c *Client) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	// CreateTemp gives 0600; the backup tree should be plainly readable.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize download: %w", err)
	}

	logger.Debug("downloaded %s -> %s", url, destPath)
	return nil
}
