package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wishgrab/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisionAnswer(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		title      string
		price      string
		confidence float64
	}{
		{
			name:       "clean json",
			content:    `{"title": "Reloj Tommy Hilfiger", "price": "119,00 €", "confidence": 0.9}`,
			title:      "Reloj Tommy Hilfiger",
			price:      "119,00€",
			confidence: 0.9,
		},
		{
			name:       "markdown fenced",
			content:    "```json\n{\"title\": \"Zapatillas Pegasus\", \"price\": \"139.99 EUR\", \"confidence\": 0.8}\n```",
			title:      "Zapatillas Pegasus",
			price:      "139,99€",
			confidence: 0.8,
		},
		{
			name:       "prose around the object",
			content:    `Here is the extraction: {"title": "Funda iPhone", "price": "", "confidence": 0.6} as requested.`,
			title:      "Funda iPhone",
			price:      "",
			confidence: 0.6,
		},
		{
			name:    "not json at all",
			content: "I could not read the screenshot.",
		},
		{
			name:    "empty",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseVisionAnswer(tt.content)
			assert.Equal(t, tt.title, result.Title)
			assert.Equal(t, tt.price, result.Price)
			assert.InDelta(t, tt.confidence, result.Confidence, 0.001)
		})
	}
}

func TestVisionClientDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewVisionClient(config.VisionConfig{APIKey: ""}))
}

func TestVisionClientReadScreenshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req visionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "image_url", req.Messages[0].Content[1].Type)
		assert.Contains(t, req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"title": "Auriculares XB-500", "price": "29,99 €", "confidence": 0.85}`,
				}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	v := NewVisionClient(config.VisionConfig{
		APIKey:            "test-key",
		Model:             "test-model",
		BaseURL:           srv.URL,
		RequestsPerMinute: 600,
	})
	require.NotNil(t, v)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := v.ReadScreenshot(ctx, []byte{0x89, 0x50, 0x4e, 0x47})

	assert.Equal(t, "Auriculares XB-500", result.Title)
	assert.Equal(t, "29,99€", result.Price)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
}

func TestVisionClientFailuresYieldEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	v := NewVisionClient(config.VisionConfig{
		APIKey:            "test-key",
		Model:             "test-model",
		BaseURL:           srv.URL,
		RequestsPerMinute: 600,
	})

	result := v.ReadScreenshot(context.Background(), []byte{0x01})
	assert.Equal(t, "", result.Title)
	assert.Equal(t, "", result.Price)
	assert.Zero(t, result.Confidence)
}

func TestVisionClientJudgeTitle(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		plausible bool
		ok        bool
	}{
		{"yes", "YES", true, true},
		{"no", "NO", false, true},
		{"lowercase with prose", "no, that is a slogan", false, true},
		{"unexpected reply", "maybe?", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req visionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Len(t, req.Messages, 1)
				// Text-only: no image part in a judgment call
				require.Len(t, req.Messages[0].Content, 1)
				assert.Equal(t, "text", req.Messages[0].Content[0].Type)
				assert.Contains(t, req.Messages[0].Content[0].Text, "Compra ya")

				json.NewEncoder(w).Encode(map[string]interface{}{
					"choices": []map[string]interface{}{
						{"message": map[string]string{"content": tt.reply}},
					},
				})
			}))
			t.Cleanup(srv.Close)

			v := NewVisionClient(config.VisionConfig{
				APIKey:            "test-key",
				Model:             "test-model",
				BaseURL:           srv.URL,
				RequestsPerMinute: 600,
			})

			plausible, ok := v.JudgeTitle(context.Background(), "Compra ya")
			assert.Equal(t, tt.plausible, plausible)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestVisionClientJudgeTitlePermissiveOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	v := NewVisionClient(config.VisionConfig{
		APIKey:            "test-key",
		Model:             "test-model",
		BaseURL:           srv.URL,
		RequestsPerMinute: 600,
	})

	plausible, ok := v.JudgeTitle(context.Background(), "Reloj Tommy Hilfiger")
	assert.True(t, plausible)
	assert.False(t, ok)
}

func TestVisionClientEmptyScreenshot(t *testing.T) {
	v := NewVisionClient(config.VisionConfig{APIKey: "k", RequestsPerMinute: 600})
	result := v.ReadScreenshot(context.Background(), nil)
	assert.Equal(t, "", result.Title)
}
