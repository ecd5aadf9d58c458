package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wishgrab/config"
	"wishgrab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTimeouts() config.TimeoutsConfig {
	return config.TimeoutsConfig{
		SitePhase:     500 * time.Millisecond,
		GenericPhase:  500 * time.Millisecond,
		HeadlessPhase: 500 * time.Millisecond,
		VisionPhase:   500 * time.Millisecond,
	}
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.ProductMetadata
	gets    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]models.ProductMetadata{}}
}

func (f *fakeCache) Get(_ context.Context, url string) (models.ProductMetadata, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	meta, ok := f.entries[url]
	return meta, ok
}

func (f *fakeCache) Put(_ context.Context, url string, meta models.ProductMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.entries[url] = meta
	return nil
}

// countingTransport fails every outbound request and counts the attempts
type countingTransport struct {
	mu       sync.Mutex
	requests int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
	return nil, fmt.Errorf("unexpected outbound request to %s", req.URL)
}

func (c *countingTransport) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func serveSlow(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractKnownProductShortCircuits(t *testing.T) {
	// Every outbound request through the fetcher is counted and failed;
	// a static-table hit must never trigger one
	transport := &countingTransport{}
	fetcher := NewFetcher()
	fetcher.client.Transport = transport
	o := NewOrchestrator(testTimeouts(), fetcher, nil, nil, nil)

	meta := o.Extract(context.Background(), "https://www.amazon.es/dp/B0B7CMZ3QH")

	known, ok := LookupKnownProduct("B0B7CMZ3QH")
	require.True(t, ok)
	assert.Equal(t, known.Title, meta.Title)
	assert.Equal(t, known.ImageURL, meta.ImageURL)
	assert.True(t, meta.IsTitleValid)
	assert.Zero(t, transport.count(), "static-table hit must not touch the network")
}

func TestExtractFailureYieldsEmptyShape(t *testing.T) {
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, nil)

	meta := o.Extract(context.Background(), "http://127.0.0.1:1/x/y")

	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Description)
	assert.Empty(t, meta.ImageURL)
	assert.Empty(t, meta.Price)
	assert.False(t, meta.IsTitleValid)
	assert.False(t, meta.IsImageValid)
	assert.NotEmpty(t, meta.ValidationMessage)
}

func TestExtractUnparseableURL(t *testing.T) {
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, nil)

	meta := o.Extract(context.Background(), "ht tp://%%%")
	assert.Empty(t, meta.Title)
	assert.False(t, meta.IsTitleValid)
}

func TestExtractSlugFallbackTitle(t *testing.T) {
	// Host is unreachable, but the URL slug still names the product
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, nil)

	meta := o.Extract(context.Background(), "http://127.0.0.1:1/productos/reloj-tommy-hilfiger-azul")

	assert.Equal(t, "Reloj Tommy Hilfiger Azul", meta.Title)
	assert.True(t, meta.IsTitleValid)
	assert.False(t, meta.IsImageValid)
}

func TestExtractRespectsPhaseBudgets(t *testing.T) {
	slow := serveSlow(t, 10*time.Second)
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, nil)

	start := time.Now()
	o.Extract(context.Background(), slow.URL+"/p/1")
	// One site/generic sweep at most, each capped by its phase budget
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExtractUsesCache(t *testing.T) {
	srv := serveHTML(t, jsonLDPage)
	cache := newFakeCache()
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, cache)

	first := o.Extract(context.Background(), srv.URL+"/producto/1")
	require.Equal(t, "Auriculares Inalámbricos XB-500", first.Title)
	require.Equal(t, 1, cache.puts)

	second := o.Extract(context.Background(), srv.URL+"/producto/1")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.puts, "cache hit must not re-extract")
	assert.Equal(t, 2, cache.gets)
}

func TestFillFromVisionSlugTitleWins(t *testing.T) {
	answer := models.VisionResult{Title: "Compra online al mejor precio", Price: "49,99€", Confidence: 0.9}

	// With a slug-derived title available, the model never names the
	// product; it only supplies the price
	var result models.ExtractorResult
	fillFromVision(&result, answer, "Reloj Tommy Hilfiger 1791975")
	assert.Equal(t, "Reloj Tommy Hilfiger 1791975", result.Title)
	assert.Equal(t, "49,99€", result.Price)

	// No slug, so the model's title is the only option left
	var noSlug models.ExtractorResult
	fillFromVision(&noSlug, answer, "")
	assert.Equal(t, "Compra online al mejor precio", noSlug.Title)
}

func TestFillFromVisionKeepsEarlierFields(t *testing.T) {
	answer := models.VisionResult{Title: "X", Price: "9,99€", Confidence: 0.9}

	result := models.ExtractorResult{Title: "Echo Dot (5.ª generación)", Source: "site"}
	fillFromVision(&result, answer, "Otro Producto")
	assert.Equal(t, "Echo Dot (5.ª generación)", result.Title)
	assert.Equal(t, "9,99€", result.Price)
	assert.Equal(t, "site", result.Source)
}

func TestFillFromVisionLowConfidenceIgnored(t *testing.T) {
	var result models.ExtractorResult
	fillFromVision(&result, models.VisionResult{Title: "X", Price: "9,99€", Confidence: 0.2}, "")
	assert.Empty(t, result.Title)
	assert.Empty(t, result.Price)
}

func TestExtractKnownProductSkipsCache(t *testing.T) {
	cache := newFakeCache()
	o := NewOrchestrator(testTimeouts(), NewFetcher(), nil, nil, cache)

	o.Extract(context.Background(), "https://www.amazon.es/dp/B09G9FPHY6")
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.puts)
}
