package docsync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// defaultStartupWorkers bounds startup reconciliation concurrency when
// EngineConfig.StartupWorkers is unset.
const defaultStartupWorkers = 4

// EngineConfig holds the options for NewEngine.
type EngineConfig struct {
	Source            FileSource
	Backend           Backend
	Preprocessor      Preprocessor
	Store             *StateStore
	Failures          *FailureLog
	StartupSyncMode   StartupSyncMode
	CleanupFailedDocs bool
	PollInterval      time.Duration
	Logger            *slog.Logger

	// StartupWorkers bounds how many files RunStartup reconciles concurrently
	// (each may download and hash a file). Defaults to defaultStartupWorkers.
	// Mirrors the teacher's TransferWorkers-bounded errgroup dispatch pool.
	StartupWorkers int

	// WakeCh, if non-nil, lets a FileSource request an early tick (e.g. an
	// fsnotify-backed local source) instead of waiting out the full poll
	// interval. The scheduling model stays single-timer: a wake collapses
	// the remaining wait rather than spawning a concurrent tick.
	WakeCh <-chan struct{}
}

// Report summarizes one reconciliation pass (startup or poll tick), for
// logging and for the CLI's one-shot `sync` command. mu guards the counter
// fields when RunStartup reconciles files concurrently; callers that only
// read a finished Report (e.g. the CLI) need not touch it.
type Report struct {
	Uploaded  int
	Updated   int
	Stale     int
	Deleted   int
	Orphaned  int
	Failed    int
	Errors    []error
	StartedAt time.Time
	Duration  time.Duration

	mu sync.Mutex
}

// addUploaded, addStale, addDeleted atomically bump a counter — used by
// RunStartup's concurrent per-file reconciliation.
func (r *Report) addUploaded(n int) {
	r.mu.Lock()
	r.Uploaded += n
	r.mu.Unlock()
}

func (r *Report) addStale(n int) {
	r.mu.Lock()
	r.Stale += n
	r.mu.Unlock()
}

func (r *Report) addDeleted(n int) {
	r.mu.Lock()
	r.Deleted += n
	r.mu.Unlock()
}

func (r *Report) addOrphaned(n int) {
	r.mu.Lock()
	r.Orphaned += n
	r.mu.Unlock()
}

// Engine orchestrates startup reconciliation and periodic polling. It is the
// single mutator of StateStore. RunStartup reconciles files on a bounded
// pool of goroutines (startupWorkers), relying on StateStore's mutex; poll
// ticks run one at a time on the goroutine that calls Run.
type Engine struct {
	source   FileSource
	backend  Backend
	pre      Preprocessor
	store    *StateStore
	failures *FailureLog

	startupMode    StartupSyncMode
	cleanup        bool
	interval       time.Duration
	logger         *slog.Logger
	wakeCh         <-chan struct{}
	startupWorkers int

	// pendingUploads is intentionally in-memory only (original spec §3, §9):
	// it is rebuilt from Backend.List at restart rather than persisted.
	pendingMu      sync.Mutex
	pendingUploads map[string]PendingUpload // trackID -> PendingUpload

	// paused is set by the CLI's pause/resume commands (via SIGHUP to a
	// running "docsync run" daemon) and checked at the start of every poll
	// tick. It never touches state mid-tick, so a pause lands on the next
	// tick boundary, not mid-reconciliation.
	paused atomic.Bool

	nowFunc func() time.Time // injectable for tests
}

// SetPaused updates whether the engine skips poll ticks. Safe for concurrent
// use with Run.
func (e *Engine) SetPaused(paused bool) {
	e.paused.Store(paused)
}

// Paused reports whether the engine is currently skipping poll ticks.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// NewEngine creates an Engine from cfg.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mode := cfg.StartupSyncMode
	if mode == "" {
		mode = StartupSyncNone
	}

	workers := cfg.StartupWorkers
	if workers <= 0 {
		workers = defaultStartupWorkers
	}

	return &Engine{
		source:         cfg.Source,
		backend:        cfg.Backend,
		pre:            cfg.Preprocessor,
		store:          cfg.Store,
		failures:       cfg.Failures,
		startupMode:    mode,
		cleanup:        cfg.CleanupFailedDocs,
		interval:       cfg.PollInterval,
		logger:         logger,
		wakeCh:         cfg.WakeCh,
		startupWorkers: workers,
		pendingUploads: make(map[string]PendingUpload),
		nowFunc:        time.Now,
	}
}

// Run executes startup reconciliation once, then polls on a fixed-delay
// self-rescheduling timer until ctx is canceled. Ticks never overlap: the
// next tick is scheduled only after the previous one returns (original spec
// §5), matching the bare time.NewTimer pattern used for the retry waits in
// the teacher's HTTP client rather than a ticker, which could let a slow
// tick overlap the next.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.RunStartup(ctx); err != nil {
		e.logger.Error("startup reconciliation failed", slog.String("error", err.Error()))
	}

	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.wakeCh:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
		}

		if ctx.Err() != nil {
			return nil
		}

		if _, err := e.RunPollTick(ctx); err != nil {
			e.logger.Error("poll tick failed", slog.String("error", err.Error()))
		}

		timer.Reset(e.interval)
	}
}

// logError logs a per-file error at error level without appending to the
// failure log — transient I/O errors are retried next tick, never logged as
// terminal failures (original spec §7).
func (e *Engine) logError(msg, name string, err error) {
	e.logger.Error(msg, slog.String("file", name), slog.String("error", err.Error()))
}
