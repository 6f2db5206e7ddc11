package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/types"
)

// DefaultPromptTemplate mirrors the Ollama backend's prompt; the %s is the
// target language.
const DefaultPromptTemplate = `You are a visual translator.

Detect every distinct block of text in the image and translate it to %s.

Return JSON only:
{
  "items": [
    {"original": "string", "translated": "string", "box_2d": [ymin, xmin, ymax, xmax]}
  ],
  "summary": "one short sentence describing the text found"
}

HARD RULES
- box_2d values are integers normalized to [0,1000] (NOT pixels), in the order [ymin, xmin, ymax, xmax].
- One item per visually distinct text block; keep reading order.
- translated must be natural %s, not a transliteration.
- If the image contains no readable text, return {"items":[],"summary":"No text detected"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Client translates frames through an OpenAI-compatible llama.cpp server.
type Client struct {
	baseURL    string
	model      string
	targetLang string
	httpClient *http.Client
}

// OpenAI-compatible message format
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

// OpenAI-compatible chat completion response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a new llama.cpp-backed translation client.
func NewClient(serverURL, model, targetLang string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if targetLang == "" {
		targetLang = "English"
	}

	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		model:      model,
		targetLang: targetLang,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Translate sends a base64-encoded frame to the server and parses the
// detected text regions.
func (c *Client) Translate(ctx context.Context, imgB64 string) (*types.TranslationResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	content := []ContentPart{
		{
			Type: "text",
			Text: fmt.Sprintf(DefaultPromptTemplate, c.targetLang, c.targetLang),
		},
	}
	if imgB64 != "" {
		content = append(content, ContentPart{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL: "data:image/jpeg;base64," + imgB64,
			},
		})
	}

	req := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "user",
				Content: content,
			},
		},
		Temperature: 0.7,
		MaxTokens:   4096,
		TopP:        0.8,
		Stream:      false,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}
	if len(resp.Choices) == 0 {
		return fallbackResult(client.SummaryEmptyResponse), client.ErrBadResponse
	}

	// Extract text content from the response (handle both string and
	// array formats)
	var responseText string
	switch content := resp.Choices[0].Message.Content.(type) {
	case string:
		responseText = content
	case []interface{}:
		for _, item := range content {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					responseText = text
					break
				}
			}
		}
	}

	return parseTranslationResult(responseText)
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func parseTranslationResult(raw string) (*types.TranslationResult, error) {
	raw = sanitizeModelJSON(raw)

	if strings.TrimSpace(raw) == "" {
		return fallbackResult(client.SummaryEmptyResponse), client.ErrBadResponse
	}
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return fallbackResult(client.SummaryParseFailure), client.ErrBadResponse
	}

	var result types.TranslationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return fallbackResult(client.SummaryParseFailure), client.ErrBadResponse
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &result); err2 != nil {
			return fallbackResult(client.SummaryParseFailure), client.ErrBadResponse
		}
	}

	if result.Items == nil {
		result.Items = []types.TranslatedItem{}
	}
	for i, item := range result.Items {
		if item.Box.Valid() {
			result.Items[i].Box = item.Box.Clamped()
		}
	}
	if result.Summary == "" && len(result.Items) == 0 {
		result.Summary = "No text detected"
	}
	return &result, nil
}

func fallbackResult(summary string) *types.TranslationResult {
	return &types.TranslationResult{Items: []types.TranslatedItem{}, Summary: summary}
}

func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	// Remove /* ... */ block comments
	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove // line/inline comments
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")
	reInline := regexp.MustCompile(`(?m)//.*$`)
	raw = reInline.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
