package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/types"
)

// DefaultPromptTemplate instructs the model to detect and translate every
// text block in the image, with boxes in the shared 0-1000 coordinate
// system. Both %s placeholders are the target language.
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

// Client translates frames through an Ollama server.
type Client struct {
	client     *api.Client
	model      string
	targetLang string
}

// NewClient creates a new Ollama-backed translation client.
func NewClient(ollamaURL, model, targetLang string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Base URL only; the SDK appends its own paths like /api/chat.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	if targetLang == "" {
		targetLang = "English"
	}

	return &Client{
		client:     api.NewClient(baseURL, http.DefaultClient),
		model:      model,
		targetLang: targetLang,
	}, nil
}

// Translate sends a base64-encoded frame to the model and parses the
// detected text regions. Transport failures return an error; degraded
// responses return a diagnostic result wrapped with client.ErrBadResponse.
func (c *Client) Translate(ctx context.Context, imgB64 string) (*types.TranslationResult, error) {
	// Vision models on CPU can be slow; give them room when the caller
	// didn't set a deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: fmt.Sprintf(DefaultPromptTemplate, c.targetLang, c.targetLang),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}

	return parseTranslationResult(responseContent)
}

// parseTranslationResult parses the JSON response from the vision model.
// Degraded payloads become diagnostic results rather than errors so the
// caller always has something to display.
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
		// Try conservative brace-slice approach
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return fallbackResult(client.SummaryParseFailure), client.ErrBadResponse
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &result); err2 != nil {
			return fallbackResult(client.SummaryParseFailure), client.ErrBadResponse
		}
	}

	normalizeResult(&result)
	return &result, nil
}

func fallbackResult(summary string) *types.TranslationResult {
	return &types.TranslationResult{Items: []types.TranslatedItem{}, Summary: summary}
}

// normalizeResult clamps box coordinates defensively; the model does not
// honor the min<=max invariant reliably.
func normalizeResult(result *types.TranslationResult) {
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
}

// sanitizeModelJSON removes code fences, comments, and trailing commas
// from JSON response
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
