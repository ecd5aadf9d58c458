package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<!DOCTYPE html>
<html><head><title>Tienda</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Auriculares Inalámbricos XB-500",
  "description": "Auriculares bluetooth con cancelación de ruido y 30 horas de batería.",
  "image": "https://cdn.tienda.example/img/xb500.jpg",
  "offers": {
    "@type": "Offer",
    "price": "29.99",
    "priceCurrency": "EUR"
  }
}
</script>
</head><body><h1>Auriculares Inalámbricos XB-500</h1></body></html>`

const ogPage = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Lámpara de escritorio LED" />
<meta property="og:description" content="Lámpara regulable con puerto USB y tres temperaturas de color." />
<meta property="og:image" content="/media/lampara.jpg" />
<meta property="product:price:amount" content="24.50" />
<meta property="product:price:currency" content="EUR" />
</head><body></body></html>`

const heuristicPage = `<!DOCTYPE html>
<html><head><title>Mi tienda</title></head>
<body>
<h1 class="product-title">Mochila impermeable 30L</h1>
<div class="product-description">Mochila de senderismo con cubierta de lluvia incluida y bolsillos laterales.</div>
<span class="current-price">45,00 €</span>
<img src="/icons/cart.png" width="24" height="24">
<img src="/photos/mochila-grande.jpg" width="800" height="800">
</body></html>`

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenericExtractJSONLD(t *testing.T) {
	srv := serveHTML(t, jsonLDPage)
	g := NewGenericExtractor(NewFetcher())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := g.Extract(ctx, srv.URL)

	assert.Equal(t, "Auriculares Inalámbricos XB-500", result.Title)
	assert.Contains(t, result.Description, "cancelación de ruido")
	assert.Equal(t, "https://cdn.tienda.example/img/xb500.jpg", result.ImageURL)
	assert.Equal(t, "29,99€", result.Price)
	assert.Equal(t, "generic", result.Source)
}

func TestGenericExtractOpenGraph(t *testing.T) {
	srv := serveHTML(t, ogPage)
	g := NewGenericExtractor(NewFetcher())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := g.Extract(ctx, srv.URL)

	assert.Equal(t, "Lámpara de escritorio LED", result.Title)
	assert.Contains(t, result.Description, "regulable")
	// Relative og:image resolves against the page URL
	assert.Equal(t, srv.URL+"/media/lampara.jpg", result.ImageURL)
	assert.Equal(t, "24,50€", result.Price)
}

func TestGenericExtractHeuristics(t *testing.T) {
	srv := serveHTML(t, heuristicPage)
	g := NewGenericExtractor(NewFetcher())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := g.Extract(ctx, srv.URL)

	assert.Equal(t, "Mochila impermeable 30L", result.Title)
	assert.Contains(t, result.Description, "senderismo")
	// The tiny cart icon loses to the large product photo
	assert.Equal(t, srv.URL+"/photos/mochila-grande.jpg", result.ImageURL)
	assert.Equal(t, "45,00€", result.Price)
}

func TestGenericExtractUnreachableHost(t *testing.T) {
	g := NewGenericExtractor(NewFetcher())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := g.Extract(ctx, "http://127.0.0.1:1/product")

	assert.True(t, result.IsEmpty())
}

func TestGenericExtractRespectsContext(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	t.Cleanup(slow.Close)

	g := NewGenericExtractor(NewFetcher())
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := g.Extract(ctx, slow.URL)
	require.Less(t, time.Since(start), 3*time.Second)
	assert.True(t, result.IsEmpty())
}

func TestLargestImageSkipsIconsAndPixels(t *testing.T) {
	page := `<html><body>
		<img src="https://cdn.example.com/pixel.gif" width="1" height="1">
		<img src="https://cdn.example.com/icon.png" width="32" height="32">
		<img src="https://cdn.example.com/hero.jpg" width="600" height="400">
		<img src="data:image/png;base64,AAAA" width="2000" height="2000">
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/hero.jpg", largestImage(doc, "https://shop.example.com/p/1"))
}
