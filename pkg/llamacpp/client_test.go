package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/menta2k/camera-translator/pkg/client"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		resp := ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestTranslateParsesFencedJSON(t *testing.T) {
	srv := newChatServer(t, "```json\n{\"items\":[{\"original\":\"hola\",\"translated\":\"hello\",\"box_2d\":[100,100,300,400]}],\"summary\":\"One sign\"}\n```")
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-model", "English")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	result, err := c.Translate(context.Background(), "aGk=")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if result.Items[0].Translated != "hello" {
		t.Errorf("unexpected translation %q", result.Items[0].Translated)
	}
	if result.Summary != "One sign" {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestTranslateEmptyResponseBecomesFallback(t *testing.T) {
	srv := newChatServer(t, "")
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-model", "")
	result, err := c.Translate(context.Background(), "aGk=")
	if !errors.Is(err, client.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if result == nil || len(result.Items) != 0 {
		t.Fatalf("expected empty-items fallback, got %+v", result)
	}
	if result.Summary != client.SummaryEmptyResponse {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestTranslateNonJSONBecomesFallback(t *testing.T) {
	srv := newChatServer(t, "I can see a street sign that says hola.")
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-model", "")
	result, err := c.Translate(context.Background(), "aGk=")
	if !errors.Is(err, client.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if result.Summary != client.SummaryParseFailure {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestTranslateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-model", "")
	if _, err := c.Translate(context.Background(), "aGk="); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestParseClampsOutOfOrderBoxes(t *testing.T) {
	raw := `{"items":[{"original":"a","translated":"b","box_2d":[900,800,100,200]}],"summary":"s"}`
	result, err := parseTranslationResult(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	box := result.Items[0].Box
	if box[0] > box[2] || box[1] > box[3] {
		t.Errorf("expected reordered box, got %v", box)
	}
}

func TestParseNoTextSummaryDefault(t *testing.T) {
	result, err := parseTranslationResult(`{"items":[]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Summary == "" {
		t.Error("expected a default summary for empty results")
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	raw := "```json\n{\n  \"items\": [], // nothing found\n  \"summary\": \"No text detected\",\n}\n```"
	cleaned := sanitizeModelJSON(raw)

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		t.Fatalf("sanitized output is not valid JSON: %v\n%s", err, cleaned)
	}
	if result["summary"] != "No text detected" {
		t.Errorf("unexpected summary %v", result["summary"])
	}
}
