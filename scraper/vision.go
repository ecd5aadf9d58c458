package scraper

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"wishgrab/config"
	"wishgrab/models"

	"golang.org/x/time/rate"
)

const visionPrompt = `You are looking at a screenshot of an e-commerce product page.
Extract the product title and the current price exactly as shown.
Respond with ONLY a JSON object, no markdown fences, in this shape:
{"title": "...", "price": "...", "confidence": 0.0}
Rules:
- "title" is the product name only, never the site name or a slogan.
- "price" is the main selling price including its currency symbol; empty string if no price is visible.
- "confidence" is your certainty from 0.0 to 1.0.
- If the page is a captcha, error page or login wall, return {"title": "", "price": "", "confidence": 0.0}.`

const titleJudgePrompt = `Does the following text read like a real product name from an online shop?
Short but specific names ("iPhone 14", "Colonia 4711") count as real product names.
Navigation labels, cookie banners, error messages and marketing slogans do not.
Answer with exactly one word: YES or NO.`

// VisionClient asks a multimodal model to read a product screenshot. The
// endpoint speaks the OpenAI-compatible chat-completions protocol.
type VisionClient struct {
	cfg        config.VisionConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

type visionMessage struct {
	Role    string              `json:"role"`
	Content []visionContentPart `json:"content"`
}

type visionContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewVisionClient creates a vision client. Returns nil when no API key is
// configured; callers treat a nil client as "vision disabled".
func NewVisionClient(cfg config.VisionConfig) *VisionClient {
	if cfg.APIKey == "" {
		log.Printf("[vision] no API key configured, vision fallback disabled")
		return nil
	}
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	return &VisionClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(perSecond, cfg.RequestsPerMinute),
	}
}

// ReadScreenshot sends the screenshot to the model and parses its answer.
// Every failure mode returns an empty result; the pipeline never surfaces
// vision errors to the caller.
func (v *VisionClient) ReadScreenshot(ctx context.Context, screenshot []byte) models.VisionResult {
	if len(screenshot) == 0 {
		return models.VisionResult{}
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(screenshot)
	start := time.Now()
	content, err := v.complete(ctx, visionRequest{
		Model:     v.cfg.Model,
		MaxTokens: 300,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionContentPart{
					{Type: "text", Text: visionPrompt},
					{Type: "image_url", ImageURL: &visionImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		log.Printf("[vision] model request failed: %v", fmt.Errorf("%w: %v", models.ErrModel, err))
		return models.VisionResult{}
	}

	result := parseVisionAnswer(content)
	log.Printf("[vision] model answered in %v (confidence %.2f)", time.Since(start).Round(time.Millisecond), result.Confidence)
	return result
}

// JudgeTitle asks the model, text-only, whether a title that already
// cleared the deterministic checks reads like a real product name. The
// call is permissive: only an unambiguous NO rejects, anything else
// (errors, timeouts, odd replies) counts as acceptance, reported via
// ok=false so the caller knows no judgment actually happened.
func (v *VisionClient) JudgeTitle(ctx context.Context, title string) (plausible bool, ok bool) {
	content, err := v.complete(ctx, visionRequest{
		Model:     v.cfg.Model,
		MaxTokens: 5,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionContentPart{
					{Type: "text", Text: titleJudgePrompt + "\n\nTitle: " + title},
				},
			},
		},
	})
	if err != nil {
		log.Printf("[vision] title judgment failed: %v", fmt.Errorf("%w: %v", models.ErrModel, err))
		return true, false
	}

	answer := strings.ToUpper(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(answer, "NO"):
		return false, true
	case strings.HasPrefix(answer, "YES"):
		return true, true
	}
	log.Printf("[vision] unexpected title judgment %q, accepting", content)
	return true, false
}

// complete posts one chat-completions request and returns the first
// choice's message content.
func (v *VisionClient) complete(ctx context.Context, reqBody visionRequest) (string, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.cfg.APIKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, snippet)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed visionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unparseable model response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseVisionAnswer extracts the JSON object from the model's reply.
// Models sometimes wrap the JSON in markdown fences despite instructions.
func parseVisionAnswer(content string) models.VisionResult {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Tolerate prose around the object
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}

	var answer struct {
		Title      string  `json:"title"`
		Price      string  `json:"price"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		log.Printf("[vision] model reply is not the expected JSON shape: %v", err)
		return models.VisionResult{}
	}
	return models.VisionResult{
		Title:      cleanText(answer.Title),
		Price:      CanonicalPrice(answer.Price),
		Confidence: answer.Confidence,
	}
}
