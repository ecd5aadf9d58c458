package scraper

import "regexp"

// Fashion storefronts. Nike and Zara embed clean JSON-LD; Decathlon
// mostly does too but its selector fallbacks differ, so each keeps its
// own table.

func newNikeExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagNike,
		useJSONLD: true,
		titleSelectors: []string{
			"#pdp_product_title",
			"h1[data-testid='product_title']",
			"h1.headline-2",
		},
		descriptionSelectors: []string{
			"div[data-testid='product-description']",
			".description-preview",
		},
		imageSelectors: []selectorAttr{
			{"img[data-testid='HeroImg']", "src"},
			{"picture img", "src"},
		},
		priceSelectors: []string{
			"div[data-testid='product-price']",
			".product-price.is--current-price",
			".product-price",
		},
	}, fetcher)
}

func newZaraExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagZara,
		useJSONLD: true,
		titleSelectors: []string{
			"h1.product-detail-info__header-name",
			".product-detail-card-info__header-name",
			"h1",
		},
		descriptionSelectors: []string{
			".product-detail-description",
			".expandable-text__inner-content",
		},
		imageSelectors: []selectorAttr{
			{"picture.media-image img", "src"},
			{".product-detail-images__image", "src"},
		},
		imageRegexes: []*regexp.Regexp{
			regexp.MustCompile(`"url"\s*:\s*"(https://static\.zara\.net/photos[^"]+)"`),
		},
		priceSelectors: []string{
			".product-detail-info__price .money-amount__main",
			".price-current__amount",
			".money-amount__main",
		},
		offscreenSelectors: []string{
			".screen-reader-text",
		},
	}, fetcher)
}

func newDecathlonExtractor(fetcher *Fetcher) SiteExtractor {
	return newPatternSite(sitePatterns{
		tag:       TagDecathlon,
		useJSONLD: true,
		titleSelectors: []string{
			"h1.product-name",
			"h1[class*='ProductName']",
			"h1",
		},
		descriptionSelectors: []string{
			".product-description",
			"[class*='description']",
		},
		imageSelectors: []selectorAttr{
			{".product-image img", "src"},
			{"img[class*='ProductImage']", "src"},
			{"meta[property='og:image']", "content"},
		},
		priceSelectors: []string{
			".product-price [class*='current']",
			"[class*='vtmn-price']",
			".prc__active-price",
		},
	}, fetcher)
}
