package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"wishgrab/models"
)

const (
	maxBodySize     = 2 * 1024 * 1024 // 2 MB
	maxRedirectHops = 5
	backoffBase     = 500 * time.Millisecond
)

// Fetcher is the shared HTTP client for all static extraction strategies.
// Every call is context-scoped so a phase timeout aborts the request
// instead of leaving it in flight.
type Fetcher struct {
	client      *http.Client
	botDetector *BotDetector
}

// NewFetcher creates a fetcher with conservative connection settings
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 5 * time.Second,
				IdleConnTimeout:       30 * time.Second,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   4,
			},
		},
		botDetector: NewBotDetector(),
	}
}

// FetchHTML fetches a page with retries. Each attempt rotates through the
// User-Agent and referrer pools; failed attempts back off exponentially
// (base 500ms, doubling). A bot wall in the body counts as a failed
// attempt even on a 200 response.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoffBase<<(attempt-1)); err != nil {
				return "", fmt.Errorf("%w: %v", models.ErrNetwork, err)
			}
		}

		html, status, err := f.fetchOnce(ctx, pageURL, userAgentFor(attempt), referrerFor(attempt))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break // phase budget exhausted, stop retrying
			}
			log.Printf("Fetch attempt %d/%d failed for %s: %v", attempt+1, maxAttempts, pageURL, err)
			continue
		}

		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("%w: status %d", models.ErrBlockedBySite, status)
			log.Printf("Fetch attempt %d/%d for %s: status %d", attempt+1, maxAttempts, pageURL, status)
			continue
		}

		if blocked, reason, _ := f.botDetector.DetectBotWall(html, ""); blocked {
			lastErr = fmt.Errorf("%w: %s", models.ErrBlockedBySite, reason)
			log.Printf("Fetch attempt %d/%d for %s: bot wall (%s)", attempt+1, maxAttempts, pageURL, reason)
			continue
		}

		return html, nil
	}

	if lastErr == nil {
		lastErr = models.ErrNetwork
	}
	return "", lastErr
}

// FetchHTMLSequentialUA tries the whole User-Agent pool once each, stopping
// at the first 2xx response. Used by the generic extractor, which prefers a
// quick sweep over backoff.
func (f *Fetcher) FetchHTMLSequentialUA(ctx context.Context, pageURL string, perAttempt time.Duration) (string, error) {
	var lastErr error
	for attempt := range userAgentPool {
		attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
		html, status, err := f.fetchOnce(attemptCtx, pageURL, userAgentFor(attempt), referrerFor(attempt))
		cancel()

		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("%w: status %d", models.ErrBlockedBySite, status)
			continue
		}
		return html, nil
	}
	if lastErr == nil {
		lastErr = models.ErrNetwork
	}
	return "", lastErr
}

// fetchOnce performs a single GET with a realistic header set
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL, userAgent, referrer string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguageFor(req.URL.Hostname()))
	req.Header.Set("Cache-Control", "no-cache")
	if referrer != "" {
		req.Header.Set("Referer", referrer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}

	return string(body), resp.StatusCode, nil
}

// ResolveRedirects follows a short link to its final URL with a bounded
// number of hops. On any failure the original URL is returned unchanged.
func (f *Fetcher) ResolveRedirects(ctx context.Context, shortURL string) string {
	client := &http.Client{
		Transport: f.client.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirectHops {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return shortURL
	}
	req.Header.Set("User-Agent", userAgentFor(0))

	resp, err := client.Do(req)
	if err != nil {
		return shortURL
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	final := resp.Request.URL.String()
	if final == "" {
		return shortURL
	}
	return final
}

// sleepContext sleeps for d unless the context is cancelled first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cleanText collapses whitespace runs and trims a scraped string
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
