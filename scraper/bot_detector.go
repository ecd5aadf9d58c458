package scraper

import (
	"regexp"
	"strings"
)

// BotDetector recognizes bot walls, CAPTCHAs and challenge pages in fetched
// HTML so the pipeline treats them as a blocked attempt instead of parsing
// the challenge markup as product data.
type BotDetector struct {
	challengePatterns []*regexp.Regexp
	captchaPatterns   []*regexp.Regexp
}

// NewBotDetector creates a detector with the known challenge fingerprints
func NewBotDetector() *BotDetector {
	return &BotDetector{
		challengePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)security check`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)unusual traffic`),
			regexp.MustCompile(`(?i)pardon our interruption`),
			regexp.MustCompile(`(?i)are you a robot`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)recaptcha`),
			regexp.MustCompile(`(?i)hcaptcha`),
			regexp.MustCompile(`(?i)turnstile`),
			regexp.MustCompile(`(?i)verify you are (a )?human`),
		},
	}
}

// DetectBotWall scores the page content against known challenge patterns.
// CAPTCHA markers weigh more than generic challenge text; a very short body
// combined with any marker raises the score further.
func (bd *BotDetector) DetectBotWall(pageContent, pageTitle string) (bool, string, float64) {
	content := strings.ToLower(pageContent + " " + pageTitle)

	score := 0.0
	var reasons []string

	for _, pattern := range bd.challengePatterns {
		if pattern.MatchString(content) {
			score += 0.3
			reasons = append(reasons, pattern.String())
		}
	}
	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			score += 0.5
			reasons = append(reasons, "captcha: "+pattern.String())
		}
	}

	if len(content) < 1500 && score > 0 {
		score += 0.2
		reasons = append(reasons, "short body with challenge markers")
	}

	if score > 1.0 {
		score = 1.0
	}

	return score > 0.3, strings.Join(reasons, "; "), score
}
