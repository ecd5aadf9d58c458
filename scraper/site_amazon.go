package scraper

import "regexp"

// newAmazonExtractor builds the Amazon pattern table. Amazon renders
// everything server-side, so static fetching works as long as the image
// is pulled from the data-old-hires attribute or the embedded hiRes JSON
// rather than the lazy-loaded src.
func newAmazonExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag: TagAmazon,
		titleSelectors: []string{
			"#productTitle",
			"#title span",
			"h1.a-size-large",
		},
		titleRegexes: []*regexp.Regexp{
			regexp.MustCompile(`<span id="productTitle"[^>]*>\s*([^<]+?)\s*</span>`),
		},
		descriptionSelectors: []string{
			"#feature-bullets ul",
			"#productDescription p",
		},
		imageSelectors: []selectorAttr{
			{"#landingImage", "data-old-hires"},
			{"#landingImage", "src"},
			{"#imgBlkFront", "src"},
			{"#main-image-container img", "src"},
		},
		imageRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"hiRes"\s*:\s*"(https://[^"]+)"`),
			regexp.MustCompile(`"large"\s*:\s*"(https://m\.media-amazon\.com[^"]+)"`),
		},
		// The .a-price-whole span holds only the integer part; the
		// offscreen span is the one full-precision price read on modern
		// Amazon pages, with the legacy priceblocks as visible fallbacks.
		priceSelectors: []string{
			"#priceblock_ourprice",
			"#priceblock_dealprice",
		},
		offscreenSelectors: []string{
			"#corePrice_feature_div .a-price .a-offscreen",
			".a-price .a-offscreen",
		},
	}, fetcher)
}
