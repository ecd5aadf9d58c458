package scraper

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"wishgrab/models"
)

// Approximate, fixed conversion rates into EUR. Not live FX; only used
// when a page exposes no EUR price at all.
var eurRates = map[string]float64{
	"EUR": 1.0,
	"USD": 0.92,
	"GBP": 1.17,
}

var currencySymbols = map[string]string{
	"€": "EUR", "$": "USD", "£": "GBP",
	"EUR": "EUR", "USD": "USD", "GBP": "GBP",
}

// vatBand is an observed ratio range between a VAT-exclusive structured
// price and the VAT-inclusive price actually shown to the shopper.
type vatBand struct{ low, high float64 }

// Empirically observed margins (≈17%, ≈21%, ≈32%) on sites that put the
// pre-tax price in JSON-LD. Heuristic, not a business rule: the generic
// >15% catch-all below does most of the work, the bands document where
// the behavior was actually seen.
var vatBands = []vatBand{
	{0.16, 0.19},
	{0.20, 0.22},
	{0.30, 0.33},
}

const vatCatchAllMargin = 0.15

var priceTextPattern = regexp.MustCompile(
	`(€|\$|£|EUR|USD|GBP)?\s*([0-9]{1,3}(?:[.,\s][0-9]{3})+(?:[.,][0-9]{1,2})?|[0-9]+(?:[.,][0-9]{1,2})?)\s*(€|\$|£|EUR|USD|GBP)?`)

// ParsePriceText parses heterogeneous price text ("19,99 €", "$1,299.00",
// "1.299,95", "29.99 EUR") into a numeric value and an ISO currency.
// Currency defaults to EUR when no symbol is present.
func ParsePriceText(text string) (float64, string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", false
	}

	m := priceTextPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}

	currency := "EUR"
	for _, sym := range []string{m[1], m[3]} {
		if sym == "" {
			continue
		}
		if iso, ok := currencySymbols[strings.ToUpper(sym)]; ok {
			currency = iso
			break
		}
		if iso, ok := currencySymbols[sym]; ok {
			currency = iso
			break
		}
	}

	value, ok := parseLocaleNumber(m[2])
	if !ok || value <= 0 {
		return 0, "", false
	}
	// Years and other implausible magnitudes are never product prices
	if value >= 1000000 {
		return 0, "", false
	}
	return value, currency, true
}

// parseLocaleNumber handles both decimal conventions: "1.234,56" (comma
// decimal) and "1,234.56" (dot decimal), plus unambiguous "1234.56".
func parseLocaleNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European: dots group thousands, comma is decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		digitsAfter := len(s) - lastComma - 1
		if digitsAfter == 3 && len(s) > 4 {
			// "1,299" is a thousands separator, not cents
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		digitsAfter := len(s) - lastDot - 1
		if digitsAfter == 3 && len(s) > 4 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatEUR renders a numeric amount in the canonical price shape:
// comma decimal separator, exactly two decimals, symbol appended.
func FormatEUR(value float64) string {
	return strings.Replace(fmt.Sprintf("%.2f€", value), ".", ",", 1)
}

// CanonicalPrice turns any raw price text into the canonical string.
// Idempotent: feeding it an already-canonical price returns it unchanged.
// Non-EUR input is converted at the fixed approximate rate. Unparseable
// input yields "" — never an error.
func CanonicalPrice(raw string) string {
	value, currency, ok := ParsePriceText(raw)
	if !ok {
		return ""
	}
	return FormatEUR(toEUR(value, currency))
}

func toEUR(value float64, currency string) float64 {
	if rate, ok := eurRates[currency]; ok {
		return value * rate
	}
	return value
}

// ResolvePrice picks one canonical price string from all candidates found
// on a page. pageText is the visible text of the page, used to break ties
// between offscreen candidates. Returns "" when nothing usable exists.
func ResolvePrice(candidates []models.CandidatePrice, pageText string) string {
	if len(candidates) == 0 {
		return ""
	}

	var structured, visible, offscreen []models.CandidatePrice
	for _, c := range candidates {
		if c.NumericValue <= 0 {
			continue
		}
		switch {
		case c.Source == "jsonld" || c.Source == "meta":
			structured = append(structured, c)
		case c.Visibility == models.PriceOffscreen:
			offscreen = append(offscreen, c)
		default:
			visible = append(visible, c)
		}
	}

	if len(structured) > 0 {
		chosen := structured[0]
		// A structured price can be VAT-exclusive. When a visibly shown
		// price is higher by a tax-shaped margin, the visible price is
		// what the shopper actually pays.
		structuredEUR := toEUR(chosen.NumericValue, chosen.Currency)
		for _, v := range visible {
			visibleEUR := toEUR(v.NumericValue, v.Currency)
			if visibleEUR <= structuredEUR {
				continue
			}
			margin := visibleEUR/structuredEUR - 1
			if matchesVATBand(margin) {
				log.Printf("Price conflict: structured %.2f vs visible %.2f (margin %.1f%%), preferring visible",
					structuredEUR, visibleEUR, margin*100)
				chosen = v
				break
			}
		}
		return FormatEUR(toEUR(chosen.NumericValue, chosen.Currency))
	}

	if len(visible) > 0 {
		best := mostFrequent(visible, pageText)
		return FormatEUR(toEUR(best.NumericValue, best.Currency))
	}
	if len(offscreen) > 0 {
		best := mostFrequent(offscreen, pageText)
		return FormatEUR(toEUR(best.NumericValue, best.Currency))
	}
	return ""
}

// matchesVATBand reports whether a price margin looks like a VAT inclusion
// gap rather than a genuine different price (e.g. a list price).
func matchesVATBand(margin float64) bool {
	for _, band := range vatBands {
		if margin >= band.low && margin <= band.high {
			return true
		}
	}
	return margin > vatCatchAllMargin
}

// mostFrequent picks the candidate whose numeric value occurs most often
// in the slice; frequency ties go to the value whose raw text appears most
// often verbatim in the page text (a crossed-out list price is usually
// shown once, the real price several times).
func mostFrequent(candidates []models.CandidatePrice, pageText string) models.CandidatePrice {
	type bucket struct {
		candidate models.CandidatePrice
		count     int
	}
	buckets := map[float64]*bucket{}
	for _, c := range candidates {
		if b, ok := buckets[c.NumericValue]; ok {
			b.count++
		} else {
			buckets[c.NumericValue] = &bucket{candidate: c, count: 1}
		}
	}

	var best *bucket
	for _, b := range buckets {
		switch {
		case best == nil, b.count > best.count:
			best = b
		case b.count == best.count && pageText != "":
			if strings.Count(pageText, strings.TrimSpace(b.candidate.RawText)) >
				strings.Count(pageText, strings.TrimSpace(best.candidate.RawText)) {
				best = b
			}
		}
	}
	return best.candidate
}
