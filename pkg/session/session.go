// Package session owns the mutable application state: the active capture
// source, the current translation result, user settings and the history
// log. It wires the capturer, the inference backend and the scan
// scheduler together and guards results against source switches.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/geometry"
	"github.com/menta2k/camera-translator/pkg/history"
	"github.com/menta2k/camera-translator/pkg/overlay"
	"github.com/menta2k/camera-translator/pkg/scheduler"
	"github.com/menta2k/camera-translator/pkg/store"
	"github.com/menta2k/camera-translator/pkg/types"
)

// Settings are the user-tunable preferences persisted through the store.
type Settings struct {
	// FontScale multiplies computed overlay font sizes.
	FontScale float64 `json:"fontScale"`
	// AutoSave persists results with detected items to history
	// automatically.
	AutoSave bool `json:"autoSave"`
}

const (
	fontScaleKey = "settings.font_scale"
	autoSaveKey  = "settings.auto_save"
	packsKey     = "packs.installed"
)

func defaultSettings() Settings {
	return Settings{FontScale: 1.0, AutoSave: true}
}

// Session is the single controller of application state. Safe for
// concurrent use.
type Session struct {
	mu       sync.Mutex
	capturer *capture.Capturer
	client   client.TranslationClient
	store    store.Store
	history  *history.Log
	sched    *scheduler.Scheduler

	source  capture.Source
	element geometry.Size
	// liveSource is retained while a freeze-frame is active so continuous
	// mode can resume the live feed.
	liveSource capture.Source
	frozen     bool
	// gen is bumped on every source switch; scan results stamped with an
	// older generation are stale and discarded on arrival.
	gen      int
	current  *types.TranslationResult
	settings Settings

	ctx    context.Context
	cancel context.CancelFunc
}

// Options tune a session beyond the scheduler cadence.
type Options struct {
	Scheduler scheduler.Config
	// HistoryMax caps the history log.
	HistoryMax int
	// Defaults are the preferences used when the store holds no value
	// (or an unparseable one) for a setting.
	Defaults Settings
}

// DefaultOptions returns the standard session tuning.
func DefaultOptions() Options {
	return Options{
		Scheduler:  scheduler.DefaultConfig(),
		HistoryMax: history.DefaultMaxEntries,
		Defaults:   defaultSettings(),
	}
}

// New creates a session with the default scan cadence.
func New(capturer *capture.Capturer, cl client.TranslationClient, st store.Store) *Session {
	return NewWithOptions(capturer, cl, st, DefaultOptions())
}

// NewWithConfig creates a session with custom scheduler timing.
func NewWithConfig(capturer *capture.Capturer, cl client.TranslationClient, st store.Store, schedConfig scheduler.Config) *Session {
	opts := DefaultOptions()
	opts.Scheduler = schedConfig
	return NewWithOptions(capturer, cl, st, opts)
}

// NewWithOptions creates a fully tuned session.
func NewWithOptions(capturer *capture.Capturer, cl client.TranslationClient, st store.Store, opts Options) *Session {
	if opts.HistoryMax < 1 {
		opts.HistoryMax = history.DefaultMaxEntries
	}
	if opts.Defaults.FontScale <= 0 {
		opts.Defaults.FontScale = 1.0
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		capturer: capturer,
		client:   cl,
		store:    st,
		history:  history.NewLogWithMax(st, opts.HistoryMax),
		settings: loadSettings(st, opts.Defaults),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.sched = scheduler.NewWithConfig(s.scan, opts.Scheduler)
	return s
}

// loadSettings reads preferences from the store; missing values and parse
// failures fall back to the given defaults.
func loadSettings(st store.Store, defaults Settings) Settings {
	settings := defaults
	if st == nil {
		return settings
	}
	if raw, ok := st.Get(fontScaleKey); ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			settings.FontScale = v
		}
	}
	if raw, ok := st.Get(autoSaveKey); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			settings.AutoSave = v
		}
	}
	return settings
}

// SetSource switches the active capture source. The previous source's
// media stream is released, any frozen frame or displayed result tied to
// it is discarded, and the scan state returns to idle.
func (s *Session) SetSource(src capture.Source) {
	s.mu.Lock()
	old := s.source
	oldLive := s.liveSource
	s.source = src
	s.liveSource = nil
	s.frozen = false
	s.gen++
	s.current = nil
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if oldLive != nil {
		_ = oldLive.Close()
	}
	s.sched.Reset()
}

// Source returns the active capture source.
func (s *Session) Source() capture.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Frozen reports whether the active source is a freeze-frame of a live
// feed.
func (s *Session) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// SetElementSize records the displayed element dimensions used for
// cover-fit cropping and geometry resolution.
func (s *Session) SetElementSize(size geometry.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.element = size
}

// WatchElementSize polls size at the given interval, covering layout
// changes that fire no resize signal. The returned stop function cancels
// the watcher; it is also canceled on Close.
func (s *Session) WatchElementSize(interval time.Duration, size func() geometry.Size) (stop func()) {
	ctx, cancel := context.WithCancel(s.ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SetElementSize(size())
			}
		}
	}()
	return cancel
}

// ContentRect resolves the content rectangle for the active source inside
// the current element. ok is false while resolution is pending.
func (s *Session) ContentRect() (geometry.ContentRect, bool) {
	s.mu.Lock()
	src := s.source
	element := s.element
	s.mu.Unlock()

	if src == nil {
		return geometry.ContentRect{}, false
	}
	return geometry.Resolve(element, src.NaturalSize(), src.Fit())
}

// Overlays maps the current result into container pixel placements. When
// no content rectangle is available yet the full element is used as a
// degraded fallback.
func (s *Session) Overlays() []overlay.ItemOverlay {
	rect, ok := s.ContentRect()

	s.mu.Lock()
	res := s.current
	element := s.element
	scale := s.settings.FontScale
	s.mu.Unlock()

	if res == nil {
		return nil
	}
	if !ok {
		rect = overlay.FallbackRect(element)
	}
	return overlay.Layout(res.Items, rect, scale)
}

// TriggerScan requests a one-shot manual capture. Refused while a capture
// is in flight, in continuous mode, or while blocked.
func (s *Session) TriggerScan() bool {
	return s.sched.TriggerManual()
}

// SetContinuous toggles continuous auto-capture. Enabling it cancels any
// frozen frame and resumes the live feed.
func (s *Session) SetContinuous(on bool) {
	if on {
		s.mu.Lock()
		if s.frozen && s.liveSource != nil {
			frozenSrc := s.source
			s.source = s.liveSource
			s.liveSource = nil
			s.frozen = false
			s.gen++
			s.current = nil
			s.mu.Unlock()
			_ = frozenSrc.Close()
			s.sched.Reset()
		} else {
			s.mu.Unlock()
		}
	}
	s.sched.SetContinuous(on)
}

// Continuous reports whether continuous mode is active.
func (s *Session) Continuous() bool {
	return s.sched.Continuous()
}

// SetBlocked marks a blocking surface (settings panel) open or closed.
func (s *Session) SetBlocked(blocked bool) {
	s.sched.SetBlocked(blocked)
}

// State returns the current scan state.
func (s *Session) State() types.ScanState {
	return s.sched.State()
}

// scan performs one capture+inference cycle on behalf of the scheduler.
func (s *Session) scan(ctx context.Context) error {
	s.mu.Lock()
	src := s.source
	element := s.element
	gen := s.gen
	s.mu.Unlock()

	frame, err := s.capturer.Capture(src, element)
	if err != nil {
		// Capture unavailable: suppress this tick, no state change.
		return nil
	}
	payload, err := s.capturer.PrepareForModel(frame.Image)
	if err != nil {
		return nil
	}

	// The first manual capture of a live feed freezes the frame so the
	// user reviews the exact image that was submitted.
	s.maybeFreeze(gen, src, frame)

	res, err := s.client.Translate(ctx, payload)
	if err != nil {
		if res == nil {
			res = &types.TranslationResult{
				Items:   []types.TranslatedItem{},
				Summary: client.SummaryConnectionError,
			}
		}
		s.applyResult(gen, res, false)
		return err
	}
	s.applyResult(gen, res, true)
	return nil
}

func (s *Session) maybeFreeze(gen int, src capture.Source, frame *capture.Frame) {
	if src == nil || src.Kind() == capture.KindStatic || s.sched.Continuous() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	// Note: the generation is unchanged — the in-flight result belongs to
	// this exact frame.
	s.liveSource = s.source
	s.source = capture.NewStatic(frame.Image)
	s.frozen = true
}

// applyResult installs a completed result unless its source generation is
// stale.
func (s *Session) applyResult(gen int, res *types.TranslationResult, autoSaveEligible bool) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.current = res
	autoSave := autoSaveEligible && s.settings.AutoSave && res.HasItems()
	s.mu.Unlock()

	if autoSave {
		s.history.Append(res)
	}
}

// Current returns the displayed translation result, nil when none.
func (s *Session) Current() *types.TranslationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ClearResult discards the displayed result.
func (s *Session) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// SaveCurrent manually saves the displayed result to history. Unlike
// auto-save, summary-only results are allowed. Reports whether an entry
// was added.
func (s *Session) SaveCurrent() bool {
	s.mu.Lock()
	res := s.current
	s.mu.Unlock()
	if res == nil {
		return false
	}
	return s.history.Append(res)
}

// History returns the session's history log.
func (s *Session) History() *history.Log {
	return s.history
}

// Settings returns the current preferences.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetFontScale updates and persists the overlay font multiplier.
func (s *Session) SetFontScale(scale float64) {
	if scale <= 0 {
		scale = 1.0
	}
	s.mu.Lock()
	s.settings.FontScale = scale
	st := s.store
	s.mu.Unlock()
	if st != nil {
		_ = st.Set(fontScaleKey, strconv.FormatFloat(scale, 'f', -1, 64))
	}
}

// SetAutoSave updates and persists the auto-save preference.
func (s *Session) SetAutoSave(on bool) {
	s.mu.Lock()
	s.settings.AutoSave = on
	st := s.store
	s.mu.Unlock()
	if st != nil {
		_ = st.Set(autoSaveKey, strconv.FormatBool(on))
	}
}

// InstalledPacks returns the names of installed language packs. A missing
// or unparseable stored value reads as none installed.
func (s *Session) InstalledPacks() []string {
	if s.store == nil {
		return nil
	}
	raw, ok := s.store.Get(packsKey)
	if !ok {
		return nil
	}
	var packs []string
	if json.Unmarshal([]byte(raw), &packs) != nil {
		return nil
	}
	return packs
}

// SetPackInstalled records whether a language pack is installed.
func (s *Session) SetPackInstalled(name string, installed bool) {
	if s.store == nil {
		return
	}
	packs := s.InstalledPacks()
	out := make([]string, 0, len(packs)+1)
	for _, p := range packs {
		if p != name {
			out = append(out, p)
		}
	}
	if installed {
		out = append(out, name)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	_ = s.store.Set(packsKey, string(data))
}

// Close tears the session down: timers and watchers are canceled and the
// active media stream is released.
func (s *Session) Close() {
	s.cancel()
	s.sched.Close()

	s.mu.Lock()
	src := s.source
	live := s.liveSource
	s.source = nil
	s.liveSource = nil
	s.mu.Unlock()

	if src != nil {
		_ = src.Close()
	}
	if live != nil {
		_ = live.Close()
	}
}
