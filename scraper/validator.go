package scraper

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"

	"wishgrab/models"
)

// Titles that extraction sometimes produces instead of a product name:
// site names, navigation labels, placeholder strings. Compared
// case-insensitively against the whole title.
var titleBlacklist = []string{
	"amazon.com",
	"amazon.es",
	"amazon",
	"producto",
	"product",
	"inicio",
	"home",
	"tienda online",
	"online shop",
	"access denied",
	"robot check",
	"página no encontrada",
	"page not found",
	"just a moment",
	"loading",
	"error",
}

var literalURLPattern = regexp.MustCompile(`(?i)https?://|www\.[a-z0-9-]+\.[a-z]{2,}`)

// bareDomainPattern matches titles that are nothing but a domain name
var bareDomainPattern = regexp.MustCompile(`(?i)^[a-z0-9-]+(\.[a-z0-9-]+)+$`)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".avif", ".gif"}

// imageCDNHints cover product-image CDNs that serve images from
// extensionless paths
var imageCDNHints = []string{
	"images-na.ssl-images-amazon.com",
	"m.media-amazon.com",
	"static.zara.net",
	"static.nike.com",
	"contents.mediadecathlon.com",
	"i.ebayimg.com",
	"ae01.alicdn.com",
	"i5.walmartimages.com",
	"/image/", "/images/", "/img/", "/photos/", "/media/",
}

// TitleJudge gives a second opinion on titles that already cleared the
// deterministic rules. ok=false means no judgment actually happened
// (disabled, error, timeout) and the title stands as-is.
type TitleJudge interface {
	JudgeTitle(ctx context.Context, title string) (plausible bool, ok bool)
}

// Validator judges whether extracted fields look like real product data.
// Titles go through two stages: hard deterministic rejection rules, then
// an optional permissive model opinion for whatever survives them. The
// deterministic stage always has the last word on rejection.
// Validation is informational: it sets flags and a message on the result
// but never erases fields or fails the request.
type Validator struct {
	judge TitleJudge
}

// NewValidator creates a validator. judge may be nil; validation is then
// purely deterministic.
func NewValidator(judge TitleJudge) *Validator {
	return &Validator{judge: judge}
}

// Validate fills in the validity flags and message on the metadata
func (v *Validator) Validate(ctx context.Context, meta *models.ProductMetadata) {
	var problems []string

	meta.IsTitleValid = true
	if reason := v.titleProblem(meta.Title); reason != "" {
		meta.IsTitleValid = false
		problems = append(problems, reason)
	} else if v.judge != nil {
		if plausible, ok := v.judge.JudgeTitle(ctx, meta.Title); ok && !plausible {
			log.Printf("[validator] model judged title %q implausible", meta.Title)
			meta.IsTitleValid = false
			problems = append(problems, "title judged implausible")
		}
	}

	meta.IsImageValid = true
	if reason := v.imageProblem(meta.ImageURL); reason != "" {
		meta.IsImageValid = false
		problems = append(problems, reason)
	}

	meta.ValidationMessage = strings.Join(problems, "; ")
}

func (v *Validator) titleProblem(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "no title extracted"
	}
	if len([]rune(trimmed)) <= 2 {
		return "title too short to be a product name"
	}
	if literalURLPattern.MatchString(trimmed) {
		return "title contains a URL"
	}
	if bareDomainPattern.MatchString(trimmed) {
		return "title is a bare domain name"
	}
	lower := strings.ToLower(trimmed)
	for _, banned := range titleBlacklist {
		if lower == banned {
			return "title looks like a site or placeholder name, not a product"
		}
	}
	return ""
}

func (v *Validator) imageProblem(imageURL string) string {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return "no image extracted"
	}
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "image URL is not a valid http(s) URL"
	}

	lowerPath := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lowerPath, ext) || strings.Contains(lowerPath, ext+"/") {
			return ""
		}
	}
	lowerFull := strings.ToLower(trimmed)
	for _, hint := range imageCDNHints {
		if strings.Contains(lowerFull, hint) {
			return ""
		}
	}
	return "image URL does not look like an image"
}
