package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fieldsync/internal/logging"
)

// Watcher polls a Source and fires a callback on the offline-to-online edge.
// The sync engine uses it to kick a pass as soon as connectivity returns.
type Watcher struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
	onOnline func(context.Context)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher constructs a watcher. onOnline runs on the watcher goroutine.
func NewWatcher(source Source, interval time.Duration, logger *slog.Logger, onOnline func(context.Context)) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		source:   source,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "connectivity"),
		onOnline: onOnline,
	}
}

// Start begins background polling.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("connectivity watcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop terminates polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	last := w.source.Status(ctx).Online()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}

		current := w.source.Status(ctx).Online()
		if current && !last {
			w.logger.Info("connectivity regained", logging.String(logging.FieldEventType, "connectivity_online"))
			if w.onOnline != nil {
				w.onOnline(ctx)
			}
		} else if !current && last {
			w.logger.Info("connectivity lost", logging.String(logging.FieldEventType, "connectivity_offline"))
		}
		last = current
	}
}
