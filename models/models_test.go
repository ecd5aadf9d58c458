package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorResultMerge(t *testing.T) {
	site := ExtractorResult{Title: "Reloj Tommy Hilfiger", Price: "119,00€", Source: "site"}
	headless := ExtractorResult{Title: "Otro título", ImageURL: "https://cdn.example.com/reloj.jpg", Source: "headless"}

	merged := site.Merge(headless)
	assert.Equal(t, "Reloj Tommy Hilfiger", merged.Title, "existing fields win")
	assert.Equal(t, "https://cdn.example.com/reloj.jpg", merged.ImageURL)
	assert.Equal(t, "119,00€", merged.Price)
	assert.Equal(t, "site", merged.Source)
}

func TestExtractorResultCompleteness(t *testing.T) {
	assert.True(t, ExtractorResult{}.IsEmpty())
	assert.False(t, ExtractorResult{Title: "x"}.IsEmpty())

	assert.False(t, ExtractorResult{Title: "x", ImageURL: "y"}.IsComplete())
	assert.True(t, ExtractorResult{Title: "x", ImageURL: "y", Price: "z"}.IsComplete())
}

func TestProductMetadataJSONShape(t *testing.T) {
	data, err := json.Marshal(ProductMetadata{})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"title", "description", "imageUrl", "price", "isTitleValid", "isImageValid", "validationMessage"} {
		assert.Contains(t, raw, key, "empty fields must still serialize")
	}
}

func TestClassificationHelpers(t *testing.T) {
	c := Classification{NormalizedURL: "https://www.Amazon.es/dp/B0B7CMZ3QH?tag=x", DomainTag: "amazon"}
	assert.Equal(t, "www.amazon.es", c.Host())
	assert.False(t, c.IsGeneric())

	assert.True(t, Classification{DomainTag: "generic"}.IsGeneric())
	assert.True(t, Classification{}.IsGeneric())
}
