// Package history keeps an append-bounded, de-duplicated log of
// translation results, most recent first, persisted through the store.
package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/camera-translator/pkg/store"
	"github.com/menta2k/camera-translator/pkg/types"
)

// DefaultMaxEntries caps the history log; the oldest entry is evicted on
// overflow.
const DefaultMaxEntries = 50

const storeKey = "history"

// Entry is one saved translation result.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
	FullText  string    `json:"fullText"`
}

// FullText renders a result as the canonical text stored in history:
// "original -> translated" per item, newline-separated, or a single
// summary-only line. Empty results render as "".
func FullText(res *types.TranslationResult) string {
	if res == nil {
		return ""
	}
	if len(res.Items) > 0 {
		lines := make([]string, len(res.Items))
		for i, item := range res.Items {
			lines[i] = fmt.Sprintf("%s -> %s", item.Original, item.Translated)
		}
		return strings.Join(lines, "\n")
	}
	if res.Summary != "" {
		return "[Summary Only] " + res.Summary
	}
	return ""
}

// Log is the history log. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	store   store.Store
	max     int
	entries []Entry
}

// NewLog loads the history from st, capped at DefaultMaxEntries. A
// missing or unparseable stored value starts an empty log.
func NewLog(st store.Store) *Log {
	return NewLogWithMax(st, DefaultMaxEntries)
}

// NewLogWithMax loads the history with a custom cap.
func NewLogWithMax(st store.Store, max int) *Log {
	if max < 1 {
		max = DefaultMaxEntries
	}
	l := &Log{store: st, max: max}
	if st != nil {
		if raw, ok := st.Get(storeKey); ok {
			var entries []Entry
			if json.Unmarshal([]byte(raw), &entries) == nil {
				if len(entries) > max {
					entries = entries[:max]
				}
				l.entries = entries
			}
		}
	}
	return l
}

// Append saves a result as a new most-recent entry. It reports whether an
// entry was added: empty results and exact duplicates of the most recent
// entry (by full text and summary) are skipped.
func (l *Log) Append(res *types.TranslationResult) bool {
	text := FullText(res)
	if text == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) > 0 && l.entries[0].FullText == text && l.entries[0].Summary == res.Summary {
		return false
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Summary:   res.Summary,
		FullText:  text,
	}
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	l.persist()
	return true
}

// Entries returns a copy of the log, most recent first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.persist()
}

// persist is best-effort: a store failure keeps the in-memory log intact
// and must not disturb the caller's control flow.
func (l *Log) persist() {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(l.entries)
	if err != nil {
		return
	}
	_ = l.store.Set(storeKey, string(data))
}
