package ollama

import (
	"errors"
	"testing"

	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/types"
)

func TestNewClientDefaultsTargetLang(t *testing.T) {
	c, err := NewClient("http://localhost:11434/api/chat", "qwen2.5vl:7b", "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.targetLang != "English" {
		t.Errorf("expected English default, got %q", c.targetLang)
	}
}

func TestParseFencedResponse(t *testing.T) {
	raw := "```json\n{\"items\":[{\"original\":\"出口\",\"translated\":\"Exit\",\"box_2d\":[100,100,200,500]}],\"summary\":\"a sign\"}\n```"
	res, err := parseTranslationResult(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Translated != "Exit" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestParseEmptyResponseFallsBack(t *testing.T) {
	res, err := parseTranslationResult("   ")
	if !errors.Is(err, client.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if res == nil || res.Summary != client.SummaryEmptyResponse {
		t.Errorf("expected empty-response diagnostic, got %+v", res)
	}
}

func TestParseProseResponseFallsBack(t *testing.T) {
	res, err := parseTranslationResult("I cannot see any text in this image.")
	if !errors.Is(err, client.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if res.Summary != client.SummaryParseFailure {
		t.Errorf("expected parse-failure diagnostic, got %+v", res)
	}
}

func TestParseClampsDisorderedBoxes(t *testing.T) {
	raw := `{"items":[{"original":"a","translated":"b","box_2d":[900,1200,100,-50]}],"summary":"s"}`
	res, err := parseTranslationResult(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := types.NormalizedBox{100, 0, 900, 1000}
	got := res.Items[0].Box
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected clamped box %v, got %v", want, got)
		}
	}
}

func TestSanitizeStripsCommentsAndTrailingCommas(t *testing.T) {
	raw := "{\n  // note\n  \"items\": [], /* block */\n  \"summary\": \"s\",\n}"
	res, err := parseTranslationResult(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if res.Summary != "s" {
		t.Errorf("unexpected summary %q", res.Summary)
	}
}
