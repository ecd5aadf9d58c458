package scraper

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"wishgrab/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserSession owns the shared headless Chromium instance. The browser
// is launched lazily on first use and shut down by a reaper goroutine
// after IdleTimeout without page requests; the next request launches a
// fresh one.
type BrowserSession struct {
	cfg config.BrowserConfig

	mu       sync.Mutex
	browser  *rod.Browser
	lastUsed time.Time
	closed   bool
	reaping  bool
}

// NewBrowserSession creates the session manager without launching anything
func NewBrowserSession(cfg config.BrowserConfig) *BrowserSession {
	return &BrowserSession{cfg: cfg}
}

// Page returns a fresh stealth page on the shared browser, launching it
// first if needed. The caller must close the page.
func (bs *BrowserSession) Page() (*rod.Page, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.closed {
		return nil, errors.New("browser session closed")
	}

	if bs.browser == nil {
		browser, err := bs.launch()
		if err != nil {
			return nil, err
		}
		bs.browser = browser
		if !bs.reaping {
			bs.reaping = true
			go bs.reapLoop()
		}
	}
	bs.lastUsed = time.Now()

	page, err := stealth.Page(bs.browser)
	if err != nil {
		// The browser may have died underneath us; drop it so the next
		// call relaunches.
		log.Printf("[browser] page creation failed, discarding browser: %v", err)
		bs.browser.Close()
		bs.browser = nil
		return nil, err
	}
	return page, nil
}

// Touch marks the session as recently used so the reaper keeps the
// browser alive while a long extraction is still working with a page.
func (bs *BrowserSession) Touch() {
	bs.mu.Lock()
	bs.lastUsed = time.Now()
	bs.mu.Unlock()
}

// Close shuts the browser down permanently
func (bs *BrowserSession) Close() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.closed = true
	if bs.browser != nil {
		bs.browser.Close()
		bs.browser = nil
	}
}

func (bs *BrowserSession) launch() (*rod.Browser, error) {
	// Use system Chromium when configured or present, auto-detect otherwise
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	bin := bs.cfg.BinPath
	if bin == "" {
		if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
			bin = "/usr/bin/chromium-browser"
		}
	}
	if bin != "" {
		l = l.Bin(bin)
		log.Printf("[browser] using Chromium at %s", bin)
	} else {
		log.Printf("[browser] using auto-detected Chromium")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	log.Printf("[browser] launched at %s", controlURL)
	return browser, nil
}

// reapLoop closes the browser once it has sat idle long enough. Runs for
// the lifetime of the session; cheap to keep around between launches.
func (bs *BrowserSession) reapLoop() {
	interval := bs.cfg.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		bs.mu.Lock()
		if bs.closed {
			bs.mu.Unlock()
			return
		}
		if bs.browser != nil && time.Since(bs.lastUsed) > bs.cfg.IdleTimeout {
			log.Printf("[browser] idle for %s, shutting down Chromium", bs.cfg.IdleTimeout)
			bs.browser.Close()
			bs.browser = nil
		}
		bs.mu.Unlock()
	}
}
