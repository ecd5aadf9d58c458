package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"wishgrab/scraper"
)

// maxConcurrentExtractions bounds how many extractions run at once.
// Each extraction may hold a headless browser page, so this number stays
// small.
const maxConcurrentExtractions = 5

// CacheStats reports the current size of the metadata cache. Implemented
// by the metadata repository; nil means no cache is configured.
type CacheStats interface {
	CountEntries(ctx context.Context) (int, error)
}

type Handlers struct {
	orchestrator *scraper.Orchestrator
	browser      *scraper.BrowserSession
	cacheStats   CacheStats
	startedAt    time.Time

	// semaphore gating concurrent extractions
	slots chan struct{}

	// counters exposed on /metrics
	totalRequests    atomic.Int64
	totalRejected    atomic.Int64
	totalExtractions atomic.Int64
}

func NewHandlers(orchestrator *scraper.Orchestrator, browser *scraper.BrowserSession, cacheStats CacheStats) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		browser:      browser,
		cacheStats:   cacheStats,
		startedAt:    time.Now(),
		slots:        make(chan struct{}, maxConcurrentExtractions),
	}
}

// Close shuts down resources owned by the handlers
func (h *Handlers) Close() {
	if h.browser != nil {
		h.browser.Close()
	}
}

// ExtractMetadata handles GET /api/extract-metadata?url=...
// The only client error is a missing url parameter; everything that goes
// wrong during extraction still yields a 200 with whatever partial
// metadata exists.
func (h *Handlers) ExtractMetadata(w http.ResponseWriter, r *http.Request) {
	h.totalRequests.Add(1)

	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	// Wait for a free extraction slot, but not past the client going away
	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-r.Context().Done():
		h.totalRejected.Add(1)
		return
	}

	log.Printf("🔍 extracting metadata for %s", rawURL)
	h.totalExtractions.Add(1)

	metadata := h.orchestrator.Extract(r.Context(), rawURL)
	writeJSON(w, http.StatusOK, metadata)
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "wishgrab",
		"version":   "1.0.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// Metrics exposes request counters and basic process stats
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"timestamp":         time.Now(),
		"uptime":            time.Since(h.startedAt).Round(time.Second).String(),
		"goroutines":        runtime.NumGoroutine(),
		"memory_usage":      fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
		"total_requests":    h.totalRequests.Load(),
		"total_extractions": h.totalExtractions.Load(),
		"total_rejected":    h.totalRejected.Load(),
		"max_concurrent":    maxConcurrentExtractions,
	}
	if h.cacheStats != nil {
		if n, err := h.cacheStats.CountEntries(r.Context()); err == nil {
			response["cache_entries"] = n
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
