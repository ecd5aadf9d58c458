package scraper

import (
	"encoding/json"
	"fmt"
	"strings"

	"wishgrab/models"
)

// LDProduct is the subset of schema.org Product data the pipeline uses.
// Every field is optional on the wire, so parsing is tolerant: wrong types
// are coerced where sensible and dropped otherwise.
type LDProduct struct {
	Name        string
	Description string
	Image       string
	Price       string
	Currency    string
}

// IsEmpty reports whether nothing useful was found
func (p LDProduct) IsEmpty() bool {
	return p.Name == "" && p.Image == "" && p.Price == ""
}

// ParseJSONLD decodes one <script type="application/ld+json"> block and
// looks for a Product node, walking @graph arrays and ItemPage mainEntity
// references. Returns ErrParse when the block has no usable product.
func ParseJSONLD(raw string) (LDProduct, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return LDProduct{}, fmt.Errorf("%w: %v", models.ErrParse, err)
	}

	node := findProductNode(doc, 0)
	if node == nil {
		return LDProduct{}, fmt.Errorf("%w: no Product node", models.ErrParse)
	}

	product := LDProduct{
		Name:        ldString(node["name"]),
		Description: ldString(node["description"]),
		Image:       ldImage(node["image"]),
	}
	product.Price, product.Currency = ldOffer(node["offers"])
	return product, nil
}

// findProductNode walks a decoded JSON-LD document looking for the first
// node whose @type is Product (or an ItemPage wrapping one)
func findProductNode(doc interface{}, depth int) map[string]interface{} {
	if depth > 6 {
		return nil
	}

	switch v := doc.(type) {
	case []interface{}:
		for _, item := range v {
			if found := findProductNode(item, depth+1); found != nil {
				return found
			}
		}
	case map[string]interface{}:
		if hasType(v, "Product") {
			return v
		}
		if hasType(v, "ItemPage") {
			if found := findProductNode(v["mainEntity"], depth+1); found != nil {
				return found
			}
		}
		if graph, ok := v["@graph"]; ok {
			if found := findProductNode(graph, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// hasType checks @type, which may be a string or a list of strings
func hasType(node map[string]interface{}, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// ldString coerces a JSON-LD value into a plain string
func ldString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return cleanText(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case map[string]interface{}:
		// e.g. {"@value": "..."} or localized text objects
		if inner, ok := s["@value"]; ok {
			return ldString(inner)
		}
	}
	return ""
}

// ldImage handles the image field's three common shapes: a URL string,
// a list of URLs, or an ImageObject
func ldImage(v interface{}) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case []interface{}:
		if len(img) > 0 {
			return ldImage(img[0])
		}
	case map[string]interface{}:
		if u := ldString(img["url"]); u != "" {
			return u
		}
		if u := ldString(img["contentUrl"]); u != "" {
			return u
		}
	}
	return ""
}

// ldOffer extracts price and currency from offers, which may be a single
// Offer, a list of Offers, or an AggregateOffer with lowPrice
func ldOffer(v interface{}) (price, currency string) {
	switch offer := v.(type) {
	case []interface{}:
		for _, item := range offer {
			if p, c := ldOffer(item); p != "" {
				return p, c
			}
		}
	case map[string]interface{}:
		currency = ldString(offer["priceCurrency"])
		if p := ldString(offer["price"]); p != "" {
			return p, currency
		}
		if p := ldString(offer["lowPrice"]); p != "" {
			return p, currency
		}
		// Offer may nest a priceSpecification object
		if spec, ok := offer["priceSpecification"].(map[string]interface{}); ok {
			if c := ldString(spec["priceCurrency"]); c != "" {
				currency = c
			}
			if p := ldString(spec["price"]); p != "" {
				return p, currency
			}
		}
	}
	return "", currency
}
