// Package browser drives the Neat web app through a real Chrome instance.
// All UI knowledge (selectors, login flow, the entities endpoint) lives here;
// the engine only sees folder handles and listings.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"neat-backup/internal/logger"
	"neat-backup/internal/wait"
)

const (
	URLLogin = "https://app.neat.com/"
	URLFiles = "https://app.neat.com/files"

	loginWindow     = 60 * time.Second
	navigateTimeout = 30 * time.Second
)

// challengeSelectors mark the bot-detection interstitial. When one shows up
// the only way forward is a human solving it in the visible window.
var challengeSelectors = []string{
	`iframe[src*="captcha"]`,
	`iframe[src*="challenge"]`,
	`#challenge-running`,
	`.cf-challenge`,
}

// Session owns one Chrome instance logged into Neat.
type Session struct {
	Browser *rod.Browser
	Page    *rod.Page

	DownloadDir string
	WaitTimeout time.Duration

	launch *launcher.Launcher
}

// Options configures a browser session.
type Options struct {
	Headless    bool
	DownloadDir string
	WaitTimeout time.Duration
}

// Launch starts Chrome, connects rod and enables network-level event
// delivery so responses can be intercepted later.
func Launch(opts Options) (*Session, error) {
	path, _ := launcher.LookPath()

	l := launcher.New().
		Headless(opts.Headless).
		Set("lang", "en-US").
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("use-automation-extension", "false")
	if path != "" {
		logger.Debug("using system browser at %s", path)
		l = l.Bin(path)
	}
	if !opts.Headless {
		l = l.Set("start-maximized")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if opts.DownloadDir != "" {
		err = proto.BrowserSetDownloadBehavior{
			Behavior:         proto.BrowserSetDownloadBehaviorBehaviorAllow,
			BrowserContextID: browser.BrowserContextID,
			DownloadPath:     opts.DownloadDir,
		}.Call(browser)
		if err != nil {
			browser.Close()
			l.Kill()
			return nil, fmt.Errorf("set download directory: %w", err)
		}
	}

	// Needed before any NetworkResponseReceived events will arrive.
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Session{
		Browser:     browser,
		Page:        page,
		DownloadDir: opts.DownloadDir,
		WaitTimeout: timeout,
		launch:      l,
	}, nil
}

// Login signs into Neat with the given credentials. If a bot challenge
// appears it waits up to a minute for the user to solve it by hand.
func (s *Session) Login(ctx context.Context, username, password string) error {
	logger.Info("navigating to %s", URLLogin)
	if err := s.Page.Timeout(navigateTimeout).Navigate(URLLogin); err != nil {
		return fmt.Errorf("navigate to login: %w", err)
	}
	s.Page.Timeout(navigateTimeout).WaitLoad()

	// Already logged in from a previous session's cookies?
	if s.onFilesPage() {
		logger.Success("existing session still valid")
		return nil
	}

	err := rod.Try(func() {
		p := s.Page.Timeout(s.WaitTimeout)
		p.MustElement(`input[type="email"], input[name="username"]`).MustInput(username)
		p.MustElement(`input[type="password"]`).MustInput(password)
		p.MustElement(`button[type="submit"]`).MustClick()
	})
	if err != nil {
		return fmt.Errorf("fill login form: %w", err)
	}

	if s.challengePresent() {
		logger.Warn("bot challenge detected, please solve it in the browser window")
	}

	// Poll until the app lands on the files view. Covers both the normal
	// redirect and a manually solved challenge.
	err = wait.For(ctx, wait.Options{Timeout: loginWindow, Interval: time.Second}, func() (bool, error) {
		return s.onFilesPage(), nil
	})
	if err != nil {
		if s.challengePresent() {
			return fmt.Errorf("login blocked by unsolved bot challenge")
		}
		return fmt.Errorf("login did not reach the files view: %w", err)
	}

	logger.Success("logged in as %s", username)
	return nil
}

// onFilesPage reports whether the current URL is inside the document area.
func (s *Session) onFilesPage() bool {
	info, err := s.Page.Info()
	if err != nil {
		return false
	}
	return strings.Contains(info.URL, "files") || strings.Contains(info.URL, "folders")
}

func (s *Session) challengePresent() bool {
	for _, sel := range challengeSelectors {
		if has, _, _ := s.Page.Has(sel); has {
			return true
		}
	}
	return false
}

// Cookies exports the session cookies in net/http form so the downloader can
// reuse the authenticated session outside the browser.
func (s *Session) Cookies() ([]*http.Cookie, error) {
	cookies, err := s.Browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read browser cookies: %w", err)
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return out, nil
}

// DismissOverlays closes whatever modal or toast is covering the page.
// Errors are ignored: Escape on a clean page is harmless.
func (s *Session) DismissOverlays() {
	_ = rod.Try(func() {
		s.Page.Keyboard.MustType(input.Escape)
	})
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.Browser != nil {
		_ = s.Browser.Close()
		s.Browser = nil
	}
	if s.launch != nil {
		s.launch.Kill()
		s.launch = nil
	}
}
