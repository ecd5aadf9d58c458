package scraper

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"

	"wishgrab/models"
)

// Domain tags for supported site-specific extractors
const (
	TagAmazon        = "amazon"
	TagNike          = "nike"
	TagZara          = "zara"
	TagPCComponentes = "pccomponentes"
	TagDecathlon     = "decathlon"
	TagCarrefour     = "carrefour"
	TagMiravia       = "miravia"
	TagAliExpress    = "aliexpress"
	TagEbay          = "ebay"
	TagWalmart       = "walmart"
	TagGeneric       = "generic"
)

// shortLinkHosts are hosts that only ever serve redirects to a real
// product page. These get one bounded redirect-following request before
// classification.
var shortLinkHosts = []string{
	"amzn.to", "amzn.eu", "a.co",
	"ebay.us",
	"s.click.aliexpress.com",
	"bit.ly", "tinyurl.com",
}

// productIDPattern pairs a domain tag with an ordered id-extraction regex.
// First match wins; ids are upper-cased where the site is case-insensitive.
type productIDPattern struct {
	tag       string
	re        *regexp.Regexp
	upperCase bool
}

// Ordered product-id patterns. More specific patterns come first so e.g.
// an Amazon /gp/product/ path is not swallowed by a generic rule.
var productIDPatterns = []productIDPattern{
	{TagAmazon, regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`), true},
	{TagAmazon, regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`), true},
	{TagAmazon, regexp.MustCompile(`(?i)/gp/aw/d/([A-Z0-9]{10})`), true},
	{TagAmazon, regexp.MustCompile(`(?i)[?&]asin=([A-Z0-9]{10})`), true},
	{TagAliExpress, regexp.MustCompile(`/item/(\d+)\.html`), false},
	{TagEbay, regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)`), false},
	{TagWalmart, regexp.MustCompile(`/ip/(?:[^/]+/)?(\d+)`), false},
	{TagNike, regexp.MustCompile(`(?i)/t/[^/]+/([A-Z0-9]{6,10}-[0-9]{3})`), true},
	{TagZara, regexp.MustCompile(`-p(\d{8})\.html`), false},
	{TagDecathlon, regexp.MustCompile(`/_/R-p-(\d+)`), false},
	{TagMiravia, regexp.MustCompile(`-i(\d+)(?:-s\d+)?\.html`), false},
	{TagCarrefour, regexp.MustCompile(`/p/(\d{6,})`), false},
}

// domainTags maps a host substring to its extractor tag. Checked in order;
// substring matching keeps country TLD variants (amazon.es, amazon.de, ...)
// on the same extractor.
var domainTags = []struct {
	hostPart string
	tag      string
}{
	{"amazon.", TagAmazon},
	{"nike.", TagNike},
	{"zara.", TagZara},
	{"pccomponentes.", TagPCComponentes},
	{"decathlon.", TagDecathlon},
	{"carrefour.", TagCarrefour},
	{"miravia.", TagMiravia},
	{"aliexpress.", TagAliExpress},
	{"ebay.", TagEbay},
	{"walmart.", TagWalmart},
}

// Normalizer turns an arbitrary pasted URL into a classified, canonical
// product URL. It fails soft: an unparseable URL yields a Classification
// with Failed=true, which the orchestrator treats as "generic, no id".
type Normalizer struct {
	fetcher *Fetcher
}

// NewNormalizer creates a normalizer that uses the given fetcher for
// short-link expansion
func NewNormalizer(fetcher *Fetcher) *Normalizer {
	return &Normalizer{fetcher: fetcher}
}

// Classify normalizes and classifies a raw URL string
func (n *Normalizer) Classify(ctx context.Context, rawURL string) models.Classification {
	parsed, ok := parseLenient(rawURL)
	if !ok {
		log.Printf("URL classification failed for %q", rawURL)
		return models.Classification{NormalizedURL: rawURL, DomainTag: TagGeneric, Failed: true}
	}

	// Short links hide the real host; resolve before classifying
	if isShortLinkHost(parsed.Host) && n.fetcher != nil {
		resolved := n.fetcher.ResolveRedirects(ctx, parsed.String())
		if rp, ok2 := parseLenient(resolved); ok2 {
			log.Printf("Expanded short link %s -> %s", parsed.Host, rp.Host)
			parsed = rp
		}
	}

	normalized := parsed.String()
	tag := classifyHost(parsed.Hostname())

	id, idTag := extractProductID(normalized)
	if tag == TagGeneric && idTag != "" {
		// An id pattern can identify the site even when the host is an
		// unknown mirror of it
		tag = idTag
	}

	return models.Classification{
		NormalizedURL: normalized,
		ProductID:     id,
		DomainTag:     tag,
	}
}

// parseLenient parses a URL, auto-prepending https:// once when the raw
// string has no scheme
func parseLenient(rawURL string) (*url.URL, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		retry, rerr := url.Parse("https://" + rawURL)
		if rerr != nil || retry.Host == "" || !strings.Contains(retry.Host, ".") {
			return nil, false
		}
		parsed = retry
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	return parsed, true
}

func isShortLinkHost(host string) bool {
	host = strings.ToLower(host)
	for _, s := range shortLinkHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

func classifyHost(host string) string {
	host = strings.ToLower(host)
	for _, d := range domainTags {
		if strings.Contains(host, d.hostPart) {
			return d.tag
		}
	}
	return TagGeneric
}

// extractProductID runs the ordered id pattern table; first match wins
func extractProductID(normalizedURL string) (id, tag string) {
	for _, p := range productIDPatterns {
		if m := p.re.FindStringSubmatch(normalizedURL); len(m) > 1 {
			id = m[1]
			if p.upperCase {
				id = strings.ToUpper(id)
			}
			return id, p.tag
		}
	}
	return "", ""
}

var (
	allDigitsPattern = regexp.MustCompile(`^\d+$`)
	slugIDPattern    = regexp.MustCompile(`^[pi]?\d+$`)
)

// slugTitle derives a human-readable title from a product URL path for
// domains with descriptive slugs. Deterministic, so it outranks the
// vision model when available.
func slugTitle(normalizedURL string) string {
	parsed, err := url.Parse(normalizedURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	best := ""
	for _, seg := range segments {
		seg = strings.TrimSuffix(seg, ".html")
		// Descriptive slugs are hyphenated words, not opaque ids
		if strings.Count(seg, "-") >= 2 && len(seg) > len(best) && !allDigitsPattern.MatchString(seg) {
			best = seg
		}
	}
	if best == "" {
		return ""
	}

	// Strip trailing id-ish tokens like "p01234567" or "i12345"
	words := strings.Split(best, "-")
	for len(words) > 0 {
		last := words[len(words)-1]
		if slugIDPattern.MatchString(last) {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	if len(words) == 0 {
		return ""
	}

	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
