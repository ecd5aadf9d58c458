package scraper

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"

	"wishgrab/models"

	"github.com/PuerkitoBio/goquery"
)

const siteMaxAttempts = 3

// SiteExtractor is a per-domain extraction strategy. Extract must return
// within the deadline of the supplied context, including any internal
// retries; a failed extraction is an empty result, never an error.
type SiteExtractor interface {
	Tag() string
	Extract(ctx context.Context, pageURL, productID string) models.ExtractorResult
}

// SiteRegistry maps domain tags to their extractor, resolved once at
// startup rather than per request.
type SiteRegistry struct {
	extractors map[string]SiteExtractor
}

// NewSiteRegistry builds the static registry of supported storefronts
func NewSiteRegistry(fetcher *Fetcher) *SiteRegistry {
	sites := []SiteExtractor{
		newAmazonExtractor(fetcher),
		newNikeExtractor(fetcher),
		newZaraExtractor(fetcher),
		newDecathlonExtractor(fetcher),
		newPCComponentesExtractor(fetcher),
		newCarrefourExtractor(fetcher),
		newMiraviaExtractor(fetcher),
		newAliExpressExtractor(fetcher),
		newEbayExtractor(fetcher),
		newWalmartExtractor(fetcher),
	}

	registry := &SiteRegistry{extractors: make(map[string]SiteExtractor, len(sites))}
	for _, s := range sites {
		registry.extractors[s.Tag()] = s
	}
	return registry
}

// Lookup returns the extractor for a domain tag, if one exists
func (r *SiteRegistry) Lookup(tag string) (SiteExtractor, bool) {
	e, ok := r.extractors[tag]
	return e, ok
}

// sitePatterns is the data that drives a pattern-based site extractor.
// Selectors and regexes are ordered; the first plausible match per field
// wins. Kept as data so the tables are unit-testable without network I/O.
type sitePatterns struct {
	tag                  string
	titleSelectors       []string
	titleRegexes         []*regexp.Regexp // over raw HTML, first capture group
	descriptionSelectors []string
	imageSelectors       []selectorAttr
	imageRegexes         []*regexp.Regexp
	priceSelectors       []string // visibly displayed price containers
	offscreenSelectors   []string // accessibility-only price spans
	useJSONLD            bool     // merge embedded JSON-LD product data
}

// selectorAttr names a CSS selector and the attribute holding the value
// ("" means element text)
type selectorAttr struct {
	selector string
	attr     string
}

// patternSite implements SiteExtractor on top of a sitePatterns table
type patternSite struct {
	patterns sitePatterns
	fetcher  *Fetcher
}

func newPatternSite(patterns sitePatterns, fetcher *Fetcher) *patternSite {
	return &patternSite{patterns: patterns, fetcher: fetcher}
}

func (s *patternSite) Tag() string { return s.patterns.tag }

// Extract fetches the page with UA rotation and runs the pattern tables.
// Any failure along the way degrades to whatever partial result exists.
func (s *patternSite) Extract(ctx context.Context, pageURL, productID string) models.ExtractorResult {
	html, err := s.fetcher.FetchHTML(ctx, pageURL, siteMaxAttempts)
	if err != nil {
		log.Printf("[%s] fetch failed for %s: %v", s.patterns.tag, pageURL, err)
		return models.ExtractorResult{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[%s] HTML parse failed for %s: %v", s.patterns.tag, pageURL, err)
		return models.ExtractorResult{}
	}

	result := s.extractFromDocument(doc, html, pageURL)
	result.Source = "site"
	return result
}

func (s *patternSite) extractFromDocument(doc *goquery.Document, html, pageURL string) models.ExtractorResult {
	var result models.ExtractorResult

	// JSON-LD first where the site embeds reliable structured data
	var ld LDProduct
	if s.patterns.useJSONLD {
		ld = scanJSONLD(doc)
		result.Title = ld.Name
		result.Description = ld.Description
		result.ImageURL = ld.Image
	}

	if result.Title == "" {
		result.Title = firstText(doc, s.patterns.titleSelectors, plausibleTitle)
	}
	if result.Title == "" {
		result.Title = firstRegex(html, s.patterns.titleRegexes)
	}

	if result.Description == "" {
		result.Description = firstText(doc, s.patterns.descriptionSelectors, plausibleDescription)
	}

	if result.ImageURL == "" {
		result.ImageURL = firstAttr(doc, s.patterns.imageSelectors, pageURL)
	}
	if result.ImageURL == "" {
		result.ImageURL = firstRegex(html, s.patterns.imageRegexes)
	}
	result.ImageURL = CleanCDNImageURL(result.ImageURL)

	result.Price = s.resolvePrice(doc, ld)
	return result
}

// resolvePrice collects candidates from structured data, visible price
// containers and offscreen spans, then defers to the price normalizer
func (s *patternSite) resolvePrice(doc *goquery.Document, ld LDProduct) string {
	var candidates []models.CandidatePrice

	if ld.Price != "" {
		if v, currency, ok := ParsePriceText(ld.Price + " " + ld.Currency); ok {
			candidates = append(candidates, models.CandidatePrice{
				RawText: ld.Price, NumericValue: v, Currency: currency,
				Visibility: models.PriceVisible, Source: "jsonld",
			})
		}
	}

	collect := func(selectors []string, visibility models.PriceVisibility, source string) {
		for _, sel := range selectors {
			doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
				text := cleanText(el.Text())
				if v, currency, ok := ParsePriceText(text); ok {
					candidates = append(candidates, models.CandidatePrice{
						RawText: text, NumericValue: v, Currency: currency,
						Visibility: visibility, Source: source,
					})
				}
			})
		}
	}
	collect(s.patterns.priceSelectors, models.PriceVisible, "dom")
	collect(s.patterns.offscreenSelectors, models.PriceOffscreen, "offscreen")

	return ResolvePrice(candidates, doc.Text())
}

// scanJSONLD walks every ld+json block in a document for a Product node
func scanJSONLD(doc *goquery.Document) LDProduct {
	var found LDProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		product, err := ParseJSONLD(el.Text())
		if err == nil && !product.IsEmpty() {
			found = product
			return false
		}
		return true
	})
	return found
}

// firstText returns the first selector whose text passes the filter
func firstText(doc *goquery.Document, selectors []string, filter func(string) bool) string {
	for _, sel := range selectors {
		text := cleanText(doc.Find(sel).First().Text())
		if filter(text) {
			return text
		}
	}
	return ""
}

// firstAttr returns the first selector/attribute pair yielding a value,
// resolved against the page URL when relative
func firstAttr(doc *goquery.Document, selectors []selectorAttr, pageURL string) string {
	for _, sa := range selectors {
		el := doc.Find(sa.selector).First()
		var value string
		if sa.attr == "" {
			value = cleanText(el.Text())
		} else {
			value, _ = el.Attr(sa.attr)
		}
		value = strings.TrimSpace(value)
		if value != "" && !strings.HasPrefix(value, "data:") {
			return resolveURL(pageURL, value)
		}
	}
	return ""
}

// firstRegex returns the first capture group of the first matching regex
func firstRegex(html string, regexes []*regexp.Regexp) string {
	for _, re := range regexes {
		if m := re.FindStringSubmatch(html); len(m) > 1 {
			return cleanText(m[1])
		}
	}
	return ""
}

// resolveURL makes a possibly-relative reference absolute
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// titlePlaceholders are strings sites serve while the real title loads
var titlePlaceholders = []string{
	"producto", "product", "loading", "cargando", "amazon.com", "amazon.es",
	"robot check", "404", "not found",
}

// plausibleTitle filters out empty, too-short and placeholder titles
func plausibleTitle(text string) bool {
	if len(text) < 3 {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range titlePlaceholders {
		if lower == p {
			return false
		}
	}
	return true
}

func plausibleDescription(text string) bool {
	return len(text) >= 10
}

// amazonImageModifier matches the size/style infix Amazon CDN inserts
// before the extension, e.g. "._AC_SL1500_"
var amazonImageModifier = regexp.MustCompile(`\._[^/]*_\.(jpg|jpeg|png|webp)`)

// resizeParamPattern spots resize directives in an image query string
var resizeParamPattern = regexp.MustCompile(`(?i)(^|&)(w|h|width|height|imwidth|imheight|fit|quality|q|resize|sw|sh|f)=`)

// CleanCDNImageURL strips resize and crop modifiers from CDN image URLs so
// the original asset is kept instead of a thumbnail
func CleanCDNImageURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}

	// Amazon-style inline modifiers keep the extension; restore the base asset
	if amazonImageModifier.MatchString(imageURL) {
		imageURL = amazonImageModifier.ReplaceAllString(imageURL, ".$1")
	}

	// Query-string resparams (w=, h=, imwidth=, fit=, quality=...) are
	// resize directives on every CDN we support; the bare path serves the
	// original
	if i := strings.IndexByte(imageURL, '?'); i >= 0 {
		if resizeParamPattern.MatchString(imageURL[i+1:]) {
			imageURL = imageURL[:i]
		}
	}
	return imageURL
}
