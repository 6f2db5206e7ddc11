// Package scheduler governs when captures are taken: idle, continuous
// auto-interval, one-shot manual trigger, and error recovery with backoff.
// At most one capture/inference cycle is in flight at a time.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/menta2k/camera-translator/pkg/types"
)

// ScanFunc performs one capture+inference cycle. A nil return moves the
// scheduler back to idle; an error moves it to the error state until the
// recovery delay elapses. Implementations receive a context canceled on
// scheduler teardown.
type ScanFunc func(ctx context.Context) error

// Config holds the scheduler timing knobs.
type Config struct {
	// Interval between automatic captures while continuous mode is on.
	Interval time.Duration
	// ContinuousErrorDelay before retrying after a failure in continuous
	// mode. Longer than the one-shot delay to avoid hammering a failing
	// service.
	ContinuousErrorDelay time.Duration
	// OneShotErrorDelay before the error state clears after a manual
	// capture failure.
	OneShotErrorDelay time.Duration
}

// DefaultConfig returns the standard scan cadence.
func DefaultConfig() Config {
	return Config{
		Interval:             3 * time.Second,
		ContinuousErrorDelay: 3 * time.Second,
		OneShotErrorDelay:    2 * time.Second,
	}
}

// Scheduler is the scan state machine. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu         sync.Mutex
	config     Config
	scan       ScanFunc
	state      types.ScanState
	inFlight   bool
	continuous bool
	blocked    bool
	loopCancel context.CancelFunc
	recovery   *time.Timer

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// New creates a scheduler with the default cadence.
func New(scan ScanFunc) *Scheduler {
	return NewWithConfig(scan, DefaultConfig())
}

// NewWithConfig creates a scheduler with custom timing.
func NewWithConfig(scan ScanFunc, config Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:     config,
		scan:       scan,
		state:      types.ScanIdle,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// State returns the current scan state.
func (s *Scheduler) State() types.ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Continuous reports whether continuous auto-capture is active.
func (s *Scheduler) Continuous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.continuous
}

// SetBlocked marks a blocking surface (such as a settings panel) as open
// or closed. While blocked, no new captures start; an in-flight capture
// is not canceled.
func (s *Scheduler) SetBlocked(blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = blocked
}

// TriggerManual requests a one-shot capture. It reports whether the
// capture was started: triggers are refused while a capture is in flight,
// while continuous mode is on, while blocked, or during error recovery.
func (s *Scheduler) TriggerManual() bool {
	s.mu.Lock()
	if s.state != types.ScanIdle || s.inFlight || s.continuous || s.blocked {
		s.mu.Unlock()
		return false
	}
	s.state = types.ScanScanning
	s.inFlight = true
	s.mu.Unlock()

	go s.runScan()
	return true
}

// SetContinuous toggles periodic auto-capture. Enabling triggers an
// immediate capture, then one per interval for as long as the mode stays
// active and no error or blocking surface intervenes.
func (s *Scheduler) SetContinuous(on bool) {
	s.mu.Lock()
	if s.continuous == on {
		s.mu.Unlock()
		return
	}
	s.continuous = on
	if !on {
		if s.loopCancel != nil {
			s.loopCancel()
			s.loopCancel = nil
		}
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.loopCancel = cancel
	s.mu.Unlock()

	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	s.tryAutoScan()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryAutoScan()
		}
	}
}

// tryAutoScan starts a capture for a continuous tick; skipped while a
// capture is in flight, during error recovery, or while blocked.
func (s *Scheduler) tryAutoScan() {
	s.mu.Lock()
	if s.state != types.ScanIdle || s.inFlight || s.blocked {
		s.mu.Unlock()
		return
	}
	s.state = types.ScanScanning
	s.inFlight = true
	s.mu.Unlock()

	s.runScan()
}

func (s *Scheduler) runScan() {
	err := s.scan(s.baseCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.state != types.ScanScanning {
		// Reset raced with the scan; its outcome no longer applies.
		return
	}
	if err != nil {
		s.state = types.ScanError
		delay := s.config.OneShotErrorDelay
		if s.continuous {
			delay = s.config.ContinuousErrorDelay
		}
		s.recovery = time.AfterFunc(delay, s.recover)
		return
	}
	s.state = types.ScanIdle
}

// recover moves Error back to Idle once the backoff delay has elapsed.
func (s *Scheduler) recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == types.ScanError {
		s.state = types.ScanIdle
	}
}

// Reset returns the scheduler to idle, e.g. after a source switch. Any
// in-flight capture keeps running but its state transition is discarded
// on completion; pending error recovery is canceled.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recovery != nil {
		s.recovery.Stop()
		s.recovery = nil
	}
	s.state = types.ScanIdle
}

// Close cancels the continuous loop, pending recovery timers and the scan
// context. The scheduler must not be reused afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.loopCancel != nil {
		s.loopCancel()
		s.loopCancel = nil
	}
	if s.recovery != nil {
		s.recovery.Stop()
		s.recovery = nil
	}
	s.continuous = false
	s.state = types.ScanIdle
	s.mu.Unlock()

	s.baseCancel()
}
