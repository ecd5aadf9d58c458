package scraper

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"wishgrab/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Consent banners and location popups that sit on top of product pages.
// Clicked best-effort in order; a miss is not an error.
var consentSelectors = []string{
	"#sp-cc-accept",                 // Amazon cookie banner
	"#onetrust-accept-btn-handler",  // OneTrust (Nike, Decathlon)
	"#didomi-notice-agree-button",   // Didomi (Carrefour)
	"button[data-qa='accept-cookies']",
	"button[id*='accept-cookies']",
	"button[id*='cookie-accept']",
	".cookie-banner button",
	"button[aria-label='Aceptar']",
	"button[aria-label='Accept']",
}

// Regional mirrors tried when the first navigation hits a bot wall. Keyed
// by host; amazon.com product URLs usually resolve on the .es mirror with
// the same ASIN path.
var regionalMirrors = map[string]string{
	"www.amazon.com": "www.amazon.es",
	"amazon.com":     "www.amazon.es",
	"www.amazon.es":  "www.amazon.com",
}

// HeadlessExtractor renders JavaScript-heavy pages in the shared Chromium
// and runs the same extraction ladder on the rendered DOM. It also
// captures a viewport screenshot for the vision fallback.
type HeadlessExtractor struct {
	session     *BrowserSession
	botDetector *BotDetector
}

// NewHeadlessExtractor creates a headless extractor on the shared session
func NewHeadlessExtractor(session *BrowserSession) *HeadlessExtractor {
	return &HeadlessExtractor{
		session:     session,
		botDetector: NewBotDetector(),
	}
}

// Extract renders the page and mines the resulting DOM. The returned
// screenshot is non-nil whenever a page rendered, even if extraction
// found nothing, so the vision phase has something to look at.
func (h *HeadlessExtractor) Extract(ctx context.Context, pageURL string) (models.ExtractorResult, []byte) {
	result, screenshot, blocked := h.extractOnce(ctx, pageURL)
	if !blocked || ctx.Err() != nil {
		return result, screenshot
	}

	// Bot wall on the rendered page: retry once on a regional mirror
	mirror := mirrorURL(pageURL)
	if mirror == "" {
		return result, screenshot
	}
	log.Printf("[headless] bot wall on %s, retrying via mirror %s", pageURL, mirror)
	mirrorResult, mirrorShot, mirrorBlocked := h.extractOnce(ctx, mirror)
	if mirrorBlocked {
		return result, screenshot
	}
	if mirrorShot != nil {
		screenshot = mirrorShot
	}
	return mirrorResult, screenshot
}

func (h *HeadlessExtractor) extractOnce(ctx context.Context, pageURL string) (models.ExtractorResult, []byte, bool) {
	page, err := h.session.Page()
	if err != nil {
		log.Printf("[headless] browser unavailable: %v", err)
		return models.ExtractorResult{}, nil, false
	}
	defer page.Close()

	page = page.Context(ctx)

	host := hostOf(pageURL)
	err = rod.Try(func() {
		page.MustSetViewport(1920, 1080, 1.0, false)
		page.MustSetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      randomUserAgent(),
			AcceptLanguage: acceptLanguageFor(host),
		})
		page.MustNavigate(pageURL)
		page.MustWaitLoad()
	})
	if err != nil {
		log.Printf("[headless] navigation failed for %s: %v", pageURL, err)
		return models.ExtractorResult{}, nil, false
	}
	h.session.Touch()

	// Let lazy content settle, then clear overlays and trigger lazy-loaded
	// images with a single scroll
	sleepContext(ctx, 1500*time.Millisecond)
	h.dismissPopups(page)
	_ = rod.Try(func() {
		page.MustEval(`() => window.scrollTo(0, document.body.scrollHeight / 2)`)
	})
	sleepContext(ctx, 500*time.Millisecond)

	var html, title string
	err = rod.Try(func() {
		html = page.MustHTML()
		title = page.MustInfo().Title
	})
	if err != nil || html == "" {
		log.Printf("[headless] could not read rendered DOM for %s: %v", pageURL, err)
		return models.ExtractorResult{}, nil, false
	}

	screenshot := h.capture(page)

	if blocked, reason, score := h.botDetector.DetectBotWall(html, title); blocked {
		log.Printf("[headless] bot wall detected on %s (%s, score %.1f)", pageURL, reason, score)
		return models.ExtractorResult{}, screenshot, true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[headless] rendered HTML unparseable for %s: %v", pageURL, err)
		return models.ExtractorResult{}, screenshot, false
	}

	result := ExtractFromDocument(doc, pageURL)
	result.Source = "headless"
	return result, screenshot, false
}

// dismissPopups clicks through known consent and location overlays.
// Every click is best-effort.
func (h *HeadlessExtractor) dismissPopups(page *rod.Page) {
	for _, sel := range consentSelectors {
		err := rod.Try(func() {
			el := page.Timeout(300 * time.Millisecond).MustElement(sel)
			el.MustClick()
		})
		if err == nil {
			log.Printf("[headless] dismissed overlay via %s", sel)
			return
		}
	}
}

func (h *HeadlessExtractor) capture(page *rod.Page) []byte {
	var shot []byte
	err := rod.Try(func() {
		shot = page.MustScreenshot()
	})
	if err != nil {
		log.Printf("[headless] screenshot failed: %v", err)
		return nil
	}
	return shot
}

func mirrorURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	mirror, ok := regionalMirrors[u.Host]
	if !ok {
		return ""
	}
	u.Host = mirror
	return u.String()
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}
