package scraper

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"wishgrab/models"

	"github.com/PuerkitoBio/goquery"
)

const genericPerAttemptTimeout = 2 * time.Second

// Shared heuristic selector tables used when a page exposes no structured
// data. Also reused by the headless extractor on rendered DOMs.
var genericTitleSelectors = []string{
	"h1[itemprop='name']",
	"h1.product-title",
	"h1.product-name",
	"[data-testid*='product-title']",
	"h1",
	"meta[property='og:title']",
}

var genericPriceSelectors = []string{
	"[itemprop='price']",
	"[data-price]",
	"[data-testid*='price']",
	".price__current",
	".current-price",
	".product-price",
	".sale-price",
	".price",
	"[class*='price']",
}

var genericOffscreenSelectors = []string{
	".visually-hidden",
	".sr-only",
	".a-offscreen",
	".screen-reader-text",
}

var genericImageSelectors = []selectorAttr{
	{"img[itemprop='image']", "src"},
	{".product-image img", "src"},
	{"[data-testid*='product-image'] img", "src"},
}

var genericDescriptionSelectors = []string{
	"[itemprop='description']",
	".product-description",
	"#description",
}

// GenericExtractor is the structured-data-first fallback for unknown
// domains: JSON-LD, then Open Graph / Twitter meta, then DOM heuristics,
// then the largest image on the page.
type GenericExtractor struct {
	fetcher *Fetcher
}

// NewGenericExtractor creates the generic fallback extractor
func NewGenericExtractor(fetcher *Fetcher) *GenericExtractor {
	return &GenericExtractor{fetcher: fetcher}
}

// Extract fetches the page, trying the User-Agent pool sequentially until
// one yields a 2xx response, then mines it for metadata. Returns whatever
// partial result exists when the budget runs out.
func (g *GenericExtractor) Extract(ctx context.Context, pageURL string) models.ExtractorResult {
	html, err := g.fetcher.FetchHTMLSequentialUA(ctx, pageURL, genericPerAttemptTimeout)
	if err != nil {
		log.Printf("[generic] fetch failed for %s: %v", pageURL, err)
		return models.ExtractorResult{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[generic] HTML parse failed for %s: %v", pageURL, err)
		return models.ExtractorResult{}
	}

	result := ExtractFromDocument(doc, pageURL)
	result.Source = "generic"
	return result
}

// ExtractFromDocument runs the full generic extraction ladder on a parsed
// document. Exported so the headless extractor can reuse it on rendered
// HTML.
func ExtractFromDocument(doc *goquery.Document, pageURL string) models.ExtractorResult {
	var result models.ExtractorResult
	var candidates []models.CandidatePrice

	// (a) JSON-LD Product node, including @graph traversal
	ld := scanJSONLD(doc)
	result.Title = ld.Name
	result.Description = ld.Description
	result.ImageURL = ld.Image
	if ld.Price != "" {
		if v, currency, ok := ParsePriceText(ld.Price + " " + ld.Currency); ok {
			candidates = append(candidates, models.CandidatePrice{
				RawText: ld.Price, NumericValue: v, Currency: currency,
				Visibility: models.PriceVisible, Source: "jsonld",
			})
		}
	}

	// (b) Open Graph / Twitter meta tags
	if result.Title == "" {
		result.Title = metaContent(doc, "og:title", "twitter:title")
	}
	if result.Description == "" {
		result.Description = metaContent(doc, "og:description", "twitter:description", "description")
	}
	if result.ImageURL == "" {
		result.ImageURL = resolveIfSet(pageURL, metaContent(doc, "og:image", "twitter:image"))
	}
	if amount := metaContent(doc, "product:price:amount", "og:price:amount"); amount != "" {
		currency := metaContent(doc, "product:price:currency", "og:price:currency")
		if v, c, ok := ParsePriceText(amount + " " + currency); ok {
			candidates = append(candidates, models.CandidatePrice{
				RawText: amount, NumericValue: v, Currency: c,
				Visibility: models.PriceVisible, Source: "meta",
			})
		}
	}

	// (c) DOM heuristics over the shared selector tables
	if result.Title == "" {
		result.Title = firstText(doc, genericTitleSelectors, plausibleTitle)
	}
	if result.Description == "" {
		result.Description = firstText(doc, genericDescriptionSelectors, plausibleDescription)
	}
	if result.ImageURL == "" {
		result.ImageURL = firstAttr(doc, genericImageSelectors, pageURL)
	}

	for _, sel := range genericPriceSelectors {
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			text := cleanText(el.Text())
			if content, ok := el.Attr("content"); ok && text == "" {
				text = content
			}
			if v, currency, ok := ParsePriceText(text); ok {
				candidates = append(candidates, models.CandidatePrice{
					RawText: text, NumericValue: v, Currency: currency,
					Visibility: models.PriceVisible, Source: "dom",
				})
			}
		})
		if len(candidates) > 0 {
			break // ordered list: first selector with hits wins
		}
	}
	for _, sel := range genericOffscreenSelectors {
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			text := cleanText(el.Text())
			if v, currency, ok := ParsePriceText(text); ok {
				candidates = append(candidates, models.CandidatePrice{
					RawText: text, NumericValue: v, Currency: currency,
					Visibility: models.PriceOffscreen, Source: "offscreen",
				})
			}
		})
	}

	// (d) last resort for the image: the largest <img> by declared area
	if result.ImageURL == "" {
		result.ImageURL = largestImage(doc, pageURL)
	}

	result.ImageURL = CleanCDNImageURL(result.ImageURL)
	result.Price = ResolvePrice(candidates, doc.Text())
	return result
}

// metaContent returns the first non-empty content attribute among meta
// tags matched by property or name
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name"} {
			if v, ok := doc.Find("meta[" + attr + "='" + key + "']").First().Attr("content"); ok {
				if v = cleanText(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// largestImage picks the <img> with the biggest declared width*height.
// Images without dimension attributes count as small; tracking pixels and
// icons are skipped outright.
func largestImage(doc *goquery.Document, pageURL string) string {
	bestArea := 0
	bestSrc := ""
	doc.Find("img").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		if src == "" {
			src, _ = el.Attr("data-src")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}

		w := attrInt(el, "width")
		h := attrInt(el, "height")
		area := w * h
		if w == 0 || h == 0 {
			area = 1 // unknown size ranks above nothing, below any sized image
		}
		if area > bestArea && w >= 0 && h >= 0 && !(w > 0 && w < 50) && !(h > 0 && h < 50) {
			bestArea = area
			bestSrc = src
		}
	})
	return resolveIfSet(pageURL, bestSrc)
}

func attrInt(el *goquery.Selection, name string) int {
	v, _ := el.Attr(name)
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func resolveIfSet(base, ref string) string {
	if ref == "" {
		return ""
	}
	return resolveURL(base, ref)
}
