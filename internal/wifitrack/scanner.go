package wifitrack

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// maxScanRetries is the default scan_retry_max (§6).
const maxScanRetries = 3

// Scanner is the single-threaded periodic scan driver described in
// §4.C. Its timer-driven select loop is modeled directly on the
// teacher's Session.Run/runLoop: a goroutine pinned to a single select
// over ctx.Done(), a reset-in-place *time.Timer, and an external
// request channel for out-of-band rescans (mobility-state changes via
// RequestRestart).
type Scanner struct {
	clock       Clock
	maxRetries  int
	scheduleFn  func() Schedule
	requestScan func(ctx context.Context) bool
	logger      *slog.Logger

	mu         sync.Mutex
	retryCount int
	tickIndex  int
	cancel     context.CancelFunc
	restartCh  chan struct{}
	stopped    bool
}

// NewScanner constructs a Scanner. scheduleFn is consulted on every tick
// so the active schedule can change between ticks (e.g. Wi-Fi
// connecting mid-cycle) without restarting the Scanner. requestScan
// performs the platform's start_scan() RPC and reports whether it was
// accepted.
func NewScanner(clock Clock, scheduleFn func() Schedule, requestScan func(ctx context.Context) bool, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		clock:       clock,
		maxRetries:  maxScanRetries,
		scheduleFn:  scheduleFn,
		requestScan: requestScan,
		logger:      logger.With(slog.String("component", "scanner")),
		restartCh:   make(chan struct{}, 1),
	}
}

// Start schedules the first scan asynchronously and begins the periodic
// loop. Calling Start on an already-started Scanner is a no-op.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = false
	s.retryCount = 0
	s.tickIndex = 0
	s.mu.Unlock()

	go s.runLoop(runCtx)
}

// Stop cancels pending scans. Idempotent.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.stopped = true
}

// RequestRestart tells the loop to re-evaluate the active schedule
// immediately — used when mobility state changes and the resulting
// period differs from the one currently in effect (§4.C).
func (s *Scanner) RequestRestart() {
	select {
	case s.restartCh <- struct{}{}:
	default:
	}
}

func (s *Scanner) runLoop(ctx context.Context) {
	timer := time.NewTimer(0) // first tick is scheduled asynchronously, immediately.
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("scanner stopped")
			return

		case <-s.restartCh:
			s.mu.Lock()
			s.tickIndex = 0
			s.mu.Unlock()
			drainTimer(timer)
			timer.Reset(0)

		case <-timer.C:
			s.runCycle(ctx)
			timer.Reset(s.nextInterval())
		}
	}
}

// runCycle implements the §4.C algorithm steps 1-3.
func (s *Scanner) runCycle(ctx context.Context) {
	accepted := s.requestScan(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if accepted {
		s.retryCount = 0
		return
	}

	s.retryCount++
	if s.retryCount >= s.maxRetries {
		s.logger.Warn("scan submission failed, aborting cycle",
			slog.Int("retry_count", s.retryCount))
		s.retryCount = 0
	}
}

// nextInterval implements step 4: select the interval from the active
// schedule at the current tick index, then advances the index for the
// following tick. tickIndex is distinct from retryCount — it tracks
// the schedule's back-off position across ticks and advances
// regardless of whether the scan submission was accepted, whereas
// retryCount counts consecutive rejected submissions across ticks and
// resets on accept or on reaching maxRetries. Schedule.At saturates an out-of-range
// index at the schedule's last step, so tickIndex is never clamped
// here.
func (s *Scanner) nextInterval() time.Duration {
	s.mu.Lock()
	idx := s.tickIndex
	s.tickIndex++
	s.mu.Unlock()
	return s.scheduleFn().At(idx)
}

// drainTimer stops t and drains a pending fire, allowing t.Reset to be
// called safely — the same stop+drain+reset pattern the teacher applies
// to its TX/detect timers.
func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
