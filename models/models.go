package models

import "strings"

// ProductMetadata is the final result handed to the wishlist form.
// All string fields are always present (empty string, never absent);
// the validity flags are only meaningful after validation has run.
type ProductMetadata struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	ImageURL          string `json:"imageUrl"`
	Price             string `json:"price"`
	IsTitleValid      bool   `json:"isTitleValid"`
	IsImageValid      bool   `json:"isImageValid"`
	ValidationMessage string `json:"validationMessage"`
}

// ExtractorResult is a partial result produced by a single extraction
// strategy. Empty fields mean "not found". Results are merged by the
// orchestrator and never mutated in place.
type ExtractorResult struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Price       string `json:"price,omitempty"`
	Source      string `json:"source,omitempty"` // "site", "generic", "headless", "vision", "cache"
}

// IsEmpty returns true if the result carries no usable field
func (r ExtractorResult) IsEmpty() bool {
	return r.Title == "" && r.Description == "" && r.ImageURL == "" && r.Price == ""
}

// IsComplete returns true when title, image and price are all resolved
func (r ExtractorResult) IsComplete() bool {
	return r.Title != "" && r.ImageURL != "" && r.Price != ""
}

// Merge returns a new result where empty fields of r are filled from other.
// Existing fields always win; nothing is overwritten.
func (r ExtractorResult) Merge(other ExtractorResult) ExtractorResult {
	merged := r
	if merged.Title == "" {
		merged.Title = other.Title
	}
	if merged.Description == "" {
		merged.Description = other.Description
	}
	if merged.ImageURL == "" {
		merged.ImageURL = other.ImageURL
	}
	if merged.Price == "" {
		merged.Price = other.Price
	}
	if merged.Source == "" {
		merged.Source = other.Source
	}
	return merged
}

// PriceVisibility tags where on the page a candidate price was found
type PriceVisibility string

const (
	PriceVisible   PriceVisibility = "visible"
	PriceOffscreen PriceVisibility = "offscreen"
)

// CandidatePrice is a raw price found on a page before conflict resolution.
// Candidates only live inside the price normalizer and are discarded once
// a canonical price string is chosen.
type CandidatePrice struct {
	RawText      string
	NumericValue float64
	Currency     string
	Visibility   PriceVisibility
	Source       string // "jsonld", "meta", "dom", "offscreen"
}

// KnownProduct is a curated entry in the static known-product table,
// keyed by a site-specific product id (e.g. an Amazon ASIN).
type KnownProduct struct {
	ID       string
	Title    string
	ImageURL string
}

// Classification is the output of the URL normalizer
type Classification struct {
	NormalizedURL string
	ProductID     string // empty when no site id pattern matched
	DomainTag     string // "amazon", "nike", ... or "generic"
	Failed        bool   // URL could not be parsed even after https:// prepend
}

// IsGeneric reports whether no site-specific extractor applies
func (c Classification) IsGeneric() bool {
	return c.DomainTag == "" || c.DomainTag == "generic"
}

// Host returns the lowercased host portion of the normalized URL, best effort
func (c Classification) Host() string {
	u := c.NormalizedURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(u)
}

// VisionResult is the structured answer of the vision-model fallback
type VisionResult struct {
	Title      string  `json:"title"`
	Price      string  `json:"price"`
	Confidence float64 `json:"confidence"`
}
