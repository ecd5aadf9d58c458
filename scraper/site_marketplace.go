package scraper

import "regexp"

// Marketplace storefronts. These are the most aggressively scripted pages
// in the registry; the static tables pick up the server-rendered skeleton
// and embedded state JSON, and the headless phase covers the rest.

func newAliExpressExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag: TagAliExpress,
		titleSelectors: []string{
			"h1[data-pl='product-title']",
			"h1.product-title-text",
			"h1",
		},
		titleRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"subject"\s*:\s*"([^"]{5,200})"`),
		},
		imageSelectors: []selectorAttr{
			{"meta[property='og:image']", "content"},
			{".magnifier-image", "src"},
		},
		imageRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"imagePathList"\s*:\s*\[\s*"(https://[^"]+)"`),
		},
		priceSelectors: []string{
			".product-price-current",
			"[class*='Price--currentPriceText']",
			".uniform-banner-box-price",
		},
	}, fetcher)
}

func newEbayExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagEbay,
		useJSONLD: true,
		titleSelectors: []string{
			"h1.x-item-title__mainTitle span",
			"h1#itemTitle",
			"h1",
		},
		descriptionSelectors: []string{
			".x-item-condition-text",
		},
		imageSelectors: []selectorAttr{
			{".ux-image-carousel-item img", "src"},
			{"#icImg", "src"},
			{"meta[property='og:image']", "content"},
		},
		priceSelectors: []string{
			".x-price-primary .ux-textspans",
			"#prcIsum",
			"#mm-saleDscPrc",
		},
	}, fetcher)
}

func newWalmartExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagWalmart,
		useJSONLD: true,
		titleSelectors: []string{
			"h1[itemprop='name']",
			"h1#main-title",
			"h1",
		},
		imageSelectors: []selectorAttr{
			{"img[data-testid='hero-image']", "src"},
			{"meta[property='og:image']", "content"},
		},
		priceSelectors: []string{
			"span[itemprop='price']",
			"[data-testid='price-wrap'] span",
		},
	}, fetcher)
}

func newMiraviaExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag: TagMiravia,
		titleSelectors: []string{
			"h1.pdp-mod-product-badge-title",
			"h1[class*='title']",
			"h1",
		},
		titleRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"title"\s*:\s*"([^"]{5,200})"`),
		},
		imageSelectors: []selectorAttr{
			{"meta[property='og:image']", "content"},
			{".pdp-mod-common-image img", "src"},
		},
		priceSelectors: []string{
			".pdp-product-price span",
			"[class*='currentPrice']",
		},
	}, fetcher)
}
