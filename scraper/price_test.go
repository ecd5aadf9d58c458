package scraper

import (
	"testing"

	"wishgrab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		value    float64
		currency string
		ok       bool
	}{
		{"euro comma decimal", "19,99 €", 19.99, "EUR", true},
		{"euro symbol first", "€49,95", 49.95, "EUR", true},
		{"dollar with thousands", "$1,299.00", 1299.00, "USD", true},
		{"european thousands", "1.299,95", 1299.95, "EUR", true},
		{"iso code suffix", "29.99 EUR", 29.99, "EUR", true},
		{"pound", "£24.50", 24.50, "GBP", true},
		{"bare integer", "2099", 2099, "EUR", true},
		{"bare integer with symbol", "1299 €", 1299, "EUR", true},
		{"bare thousands comma", "1,299", 1299, "EUR", true},
		{"timestamp magnitude rejected", "20261231235959", 0, "", false},
		{"empty", "", 0, "", false},
		{"no digits", "precio no disponible", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, currency, ok := ParsePriceText(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.value, value, 0.001)
				assert.Equal(t, tt.currency, currency)
			}
		})
	}
}

func TestCanonicalPrice(t *testing.T) {
	assert.Equal(t, "29,99€", CanonicalPrice("29.99 EUR"))
	assert.Equal(t, "1299,95€", CanonicalPrice("1.299,95 €"))
	assert.Equal(t, "", CanonicalPrice("no price here"))

	// Fixed approximate conversion into EUR
	assert.Equal(t, "92,00€", CanonicalPrice("$100"))
	assert.Equal(t, "117,00€", CanonicalPrice("£100"))
}

func TestCanonicalPriceIdempotent(t *testing.T) {
	once := CanonicalPrice("19,99 €")
	require.Equal(t, "19,99€", once)
	assert.Equal(t, once, CanonicalPrice(once))
}

func TestFormatEUR(t *testing.T) {
	assert.Equal(t, "5,00€", FormatEUR(5))
	assert.Equal(t, "19,99€", FormatEUR(19.99))
	assert.Equal(t, "1299,95€", FormatEUR(1299.95))
}

func TestResolvePriceVATConflict(t *testing.T) {
	// Structured price 100, shown price 121: a 21% gap means the
	// structured value is tax-exclusive and the shopper pays 121
	candidates := []models.CandidatePrice{
		{RawText: "100.00", NumericValue: 100, Currency: "EUR", Visibility: models.PriceVisible, Source: "jsonld"},
		{RawText: "121,00 €", NumericValue: 121, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
	}
	assert.Equal(t, "121,00€", ResolvePrice(candidates, ""))
}

func TestResolvePricePrefersStructuredOnSmallGap(t *testing.T) {
	// A 5% gap is not tax-shaped; trust the structured price
	candidates := []models.CandidatePrice{
		{RawText: "100.00", NumericValue: 100, Currency: "EUR", Visibility: models.PriceVisible, Source: "jsonld"},
		{RawText: "105,00 €", NumericValue: 105, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
	}
	assert.Equal(t, "100,00€", ResolvePrice(candidates, ""))
}

func TestResolvePriceMostFrequentVisible(t *testing.T) {
	candidates := []models.CandidatePrice{
		{RawText: "19,99 €", NumericValue: 19.99, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
		{RawText: "19,99 €", NumericValue: 19.99, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
		{RawText: "49,99 €", NumericValue: 49.99, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
	}
	assert.Equal(t, "19,99€", ResolvePrice(candidates, ""))
}

func TestResolvePriceFrequencyTieUsesPageText(t *testing.T) {
	// Crossed-out list price appears once on the page, the real price twice
	pageText := "Antes 59,99 € Ahora 39,99 € Solo hoy 39,99 €"
	candidates := []models.CandidatePrice{
		{RawText: "59,99 €", NumericValue: 59.99, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
		{RawText: "39,99 €", NumericValue: 39.99, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
	}
	assert.Equal(t, "39,99€", ResolvePrice(candidates, pageText))
}

func TestResolvePriceOffscreenFallback(t *testing.T) {
	candidates := []models.CandidatePrice{
		{RawText: "24,99 €", NumericValue: 24.99, Currency: "EUR", Visibility: models.PriceOffscreen, Source: "offscreen"},
	}
	assert.Equal(t, "24,99€", ResolvePrice(candidates, ""))
}

func TestResolvePriceEmpty(t *testing.T) {
	assert.Equal(t, "", ResolvePrice(nil, ""))
	assert.Equal(t, "", ResolvePrice([]models.CandidatePrice{
		{RawText: "0", NumericValue: 0, Currency: "EUR", Visibility: models.PriceVisible, Source: "dom"},
	}, ""))
}

func TestMatchesVATBand(t *testing.T) {
	assert.True(t, matchesVATBand(0.21))
	assert.True(t, matchesVATBand(0.17))
	assert.True(t, matchesVATBand(0.32))
	assert.True(t, matchesVATBand(0.50)) // catch-all above 15%
	assert.False(t, matchesVATBand(0.05))
	assert.False(t, matchesVATBand(0.10))
}
