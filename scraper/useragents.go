package scraper

import (
	"math/rand"
	"strings"
)

// Fixed pool of desktop User-Agent strings rotated across fetch attempts.
// Kept as data so anti-bot tweaks never touch extraction logic.
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36 Edg/118.0.2088.76",
}

// Referrers that make a product-page request look like organic traffic.
// Some storefronts serve a lighter bot challenge when one is present.
var referrerPool = []string{
	"https://www.google.com/",
	"https://www.google.es/",
	"https://www.bing.com/",
	"",
}

// userAgentFor returns the pool entry for a given attempt, wrapping around
// so every retry presents a different browser fingerprint.
func userAgentFor(attempt int) string {
	return userAgentPool[attempt%len(userAgentPool)]
}

// referrerFor rotates through the referrer pool per attempt
func referrerFor(attempt int) string {
	return referrerPool[attempt%len(referrerPool)]
}

// randomUserAgent picks any pool entry; used by the headless browser where
// attempts are not numbered.
func randomUserAgent() string {
	return userAgentPool[rand.Intn(len(userAgentPool))]
}

// acceptLanguageFor matches the Accept-Language header to the target host
// so regional storefronts do not redirect to a different locale.
func acceptLanguageFor(host string) string {
	if strings.HasSuffix(host, ".es") || strings.Contains(host, "pccomponentes") ||
		strings.Contains(host, "miravia") || strings.Contains(host, "carrefour") {
		return "es-ES,es;q=0.9,en;q=0.6"
	}
	return "en-US,en;q=0.9,es;q=0.5"
}
