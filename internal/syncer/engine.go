package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fieldsync/internal/api"
	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/executor"
	"fieldsync/internal/logging"
	"fieldsync/internal/notify"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// ErrNoConnectivity marks a pass that was skipped because the device is
// offline or the internet probe failed.
var ErrNoConnectivity = errors.New("no connectivity")

// ErrNotAuthenticated marks a pass that was skipped because no usable session
// token is available. It aliases the api sentinel so callers can match either.
var ErrNotAuthenticated = api.ErrNotAuthenticated

// ErrOperationsRemain is wrapped into the pass error whenever at least one
// queued operation failed to replay and stays in the queue.
var ErrOperationsRemain = errors.New("some operations remain queued")

// Result describes the outcome of one sync pass.
type Result struct {
	PassID   string
	Synced   int
	Failed   int
	Skipped  bool
	Duration time.Duration
	Err      error
}

// Engine replays queued operations against the remote API. At most one pass
// runs at a time; overlapping triggers are coalesced into a single follow-up
// pass.
type Engine struct {
	store     *queue.Store
	client    *api.Client
	source    connectivity.Source
	executors map[payload.Kind]executor.Executor
	notifier  notify.Service
	logger    *slog.Logger

	pollInterval time.Duration

	syncing atomic.Bool
	kick    chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	watcher *connectivity.Watcher
	lastErr error
	last    Result
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notify.Service) Option {
	return func(e *Engine) { e.notifier = notifier }
}

// WithExecutors overrides the executor registry (used in tests).
func WithExecutors(executors map[payload.Kind]executor.Executor) Option {
	return func(e *Engine) { e.executors = executors }
}

// New constructs a sync engine over the given store, API client, and
// connectivity source.
func New(cfg *config.Config, store *queue.Store, client *api.Client, source connectivity.Source, logger *slog.Logger, opts ...Option) *Engine {
	if source == nil {
		source = connectivity.Static{Connected: true, InternetReachable: true}
	}
	engine := &Engine{
		store:        store,
		client:       client,
		source:       source,
		executors:    executor.Registry(client, logger),
		notifier:     notify.NewService(cfg),
		logger:       logging.NewComponentLogger(logger, "syncer"),
		pollInterval: time.Duration(cfg.Connectivity.PollInterval) * time.Second,
		kick:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// IsSyncing reports whether a pass is currently executing.
func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// LastSyncError returns the error recorded by the most recent completed pass,
// or nil when that pass replayed everything.
func (e *Engine) LastSyncError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastResult returns the most recent completed pass outcome.
func (e *Engine) LastResult() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// OnEnqueued requests a pass because new work was queued. The request is
// coalesced: if a pass is already running, exactly one more runs after it.
func (e *Engine) OnEnqueued() { e.requestPass() }

// OnAuthenticated requests a pass because a session token became available.
func (e *Engine) OnAuthenticated() { e.requestPass() }

// OnConnectivityRestored requests a pass because the device came back online.
func (e *Engine) OnConnectivityRestored() { e.requestPass() }

func (e *Engine) requestPass() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Start launches the background trigger loop plus a connectivity watcher that
// kicks a pass on the offline-to-online edge.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("sync engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.watcher = connectivity.NewWatcher(e.source, e.pollInterval, e.logger, func(context.Context) {
		e.OnConnectivityRestored()
	})
	watcher := e.watcher
	e.wg.Add(1)
	e.mu.Unlock()

	if err := watcher.Start(runCtx); err != nil {
		e.wg.Done()
		e.Stop()
		return err
	}
	go e.loop(runCtx)
	return nil
}

// Stop terminates background processing and waits for the loop to exit. A
// pass already in flight finishes first.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	watcher := e.watcher
	e.running = false
	e.cancel = nil
	e.watcher = nil
	e.mu.Unlock()

	cancel()
	if watcher != nil {
		watcher.Stop()
	}
	e.wg.Wait()
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.kick:
		}
		e.Run(ctx)
	}
}
