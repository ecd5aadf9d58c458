package scraper

import "regexp"

// Spanish retail storefronts

func newPCComponentesExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagPCComponentes,
		useJSONLD: true,
		titleSelectors: []string{
			"h1.pdp-title",
			"h1[data-e2e='title-pdp']",
			"h1",
		},
		descriptionSelectors: []string{
			"#pdp-section-description",
			".pdp-description",
		},
		imageSelectors: []selectorAttr{
			{"img[data-e2e='image-pdp']", "src"},
			{"meta[property='og:image']", "content"},
		},
		priceSelectors: []string{
			"#pdp-price-current-integer",
			"span[data-e2e='price-current']",
			".baseprice",
		},
	}, fetcher)
}

func newCarrefourExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagCarrefour,
		useJSONLD: true,
		titleSelectors: []string{
			"h1.product-header__name",
			"h1[class*='product-title']",
			"h1",
		},
		imageSelectors: []selectorAttr{
			{".product-slider__image img", "src"},
			{"meta[property='og:image']", "content"},
		},
		imageRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"image"\s*:\s*"(https://static\.carrefour\.es[^"]+)"`),
		},
		priceSelectors: []string{
			".buybox__price",
			".product-header__price",
			"[class*='price__amount']",
		},
	}, fetcher)
}
