package history

import (
	"fmt"
	"testing"

	"github.com/menta2k/camera-translator/pkg/store"
	"github.com/menta2k/camera-translator/pkg/types"
)

func resultWithItems(pairs ...[2]string) *types.TranslationResult {
	res := &types.TranslationResult{Summary: "scene with text"}
	for _, p := range pairs {
		res.Items = append(res.Items, types.TranslatedItem{
			Original:   p[0],
			Translated: p[1],
			Box:        types.NormalizedBox{0, 0, 100, 100},
		})
	}
	return res
}

func TestFullTextItems(t *testing.T) {
	res := resultWithItems([2]string{"hola", "hello"}, [2]string{"adios", "goodbye"})
	want := "hola -> hello\nadios -> goodbye"
	if got := FullText(res); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFullTextSummaryOnly(t *testing.T) {
	res := &types.TranslationResult{Summary: "No text detected"}
	if got := FullText(res); got != "[Summary Only] No text detected" {
		t.Errorf("unexpected full text %q", got)
	}
}

func TestFullTextEmpty(t *testing.T) {
	if got := FullText(&types.TranslationResult{}); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
	if got := FullText(nil); got != "" {
		t.Errorf("expected empty text for nil result, got %q", got)
	}
}

func TestAppendDeduplicatesConsecutive(t *testing.T) {
	log := NewLog(store.NewMemory())
	res := resultWithItems([2]string{"hola", "hello"})

	if !log.Append(res) {
		t.Fatal("expected first append to succeed")
	}
	// Auto-save immediately followed by manual save of the same result.
	if log.Append(res) {
		t.Error("expected duplicate append to be skipped")
	}
	if log.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", log.Len())
	}

	if !log.Append(resultWithItems([2]string{"adios", "goodbye"})) {
		t.Error("expected distinct append to succeed")
	}
	if log.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", log.Len())
	}

	// The earlier text is no longer most recent, so it may repeat.
	if !log.Append(res) {
		t.Error("expected non-consecutive repeat to be appended")
	}
}

func TestAppendCapEvictsOldest(t *testing.T) {
	log := NewLogWithMax(store.NewMemory(), 50)

	for i := 0; i < 55; i++ {
		res := resultWithItems([2]string{fmt.Sprintf("src%d", i), fmt.Sprintf("dst%d", i)})
		if !log.Append(res) {
			t.Fatalf("append %d failed", i)
		}
	}
	if log.Len() != 50 {
		t.Fatalf("expected log capped at 50, got %d", log.Len())
	}

	entries := log.Entries()
	if entries[0].FullText != "src54 -> dst54" {
		t.Errorf("expected most recent entry first, got %q", entries[0].FullText)
	}
	if entries[len(entries)-1].FullText != "src5 -> dst5" {
		t.Errorf("expected oldest surviving entry src5, got %q", entries[len(entries)-1].FullText)
	}
}

func TestAppendSkipsEmptyResult(t *testing.T) {
	log := NewLog(store.NewMemory())
	if log.Append(&types.TranslationResult{}) {
		t.Error("expected empty result to be skipped")
	}
	if log.Len() != 0 {
		t.Errorf("expected empty log, got %d entries", log.Len())
	}
}

func TestLogPersistsAndReloads(t *testing.T) {
	st := store.NewMemory()
	log := NewLog(st)
	log.Append(resultWithItems([2]string{"uno", "one"}))
	log.Append(resultWithItems([2]string{"dos", "two"}))

	reloaded := NewLog(st)
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 reloaded entries, got %d", reloaded.Len())
	}
	entries := reloaded.Entries()
	if entries[0].FullText != "dos -> two" {
		t.Errorf("expected most recent entry first after reload, got %q", entries[0].FullText)
	}
	if entries[0].ID == "" || entries[0].Timestamp.IsZero() {
		t.Error("expected entry identity to survive reload")
	}
}

func TestCorruptHistoryValueStartsEmpty(t *testing.T) {
	st := store.NewMemory()
	st.Set("history", "not json at all")

	log := NewLog(st)
	if log.Len() != 0 {
		t.Errorf("expected empty log from corrupt value, got %d", log.Len())
	}
}

func TestClear(t *testing.T) {
	st := store.NewMemory()
	log := NewLog(st)
	log.Append(resultWithItems([2]string{"uno", "one"}))
	log.Clear()

	if log.Len() != 0 {
		t.Errorf("expected cleared log, got %d", log.Len())
	}
	if NewLog(st).Len() != 0 {
		t.Error("expected cleared state to persist")
	}
}
