package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fieldsync/internal/logging"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
	"fieldsync/internal/syncer"
)

// Facade is the application-facing surface of the offline queue. UI code
// enqueues through it and reads queue state from it; every enqueue also asks
// the sync engine for a pass so work drains immediately when the device is
// online.
type Facade struct {
	store  *queue.Store
	engine *syncer.Engine
	logger *slog.Logger
}

// New constructs the facade. engine may be nil in read-only tools that never
// trigger a sync.
func New(store *queue.Store, engine *syncer.Engine, logger *slog.Logger) *Facade {
	return &Facade{
		store:  store,
		engine: engine,
		logger: logging.NewComponentLogger(logger, "offline"),
	}
}

// EnqueueOperation stores a generic operation body for later replay.
func (f *Facade) EnqueueOperation(ctx context.Context, body json.RawMessage) (*queue.Job, error) {
	return f.enqueue(ctx, payload.Operation{Body: body})
}

// EnqueueContainerCreate stores a container creation captured offline.
func (f *Facade) EnqueueContainerCreate(ctx context.Context, create payload.ContainerCreate) (*queue.Job, error) {
	return f.enqueue(ctx, create)
}

// EnqueueContainerUpdate stores a container edit captured offline.
func (f *Facade) EnqueueContainerUpdate(ctx context.Context, update payload.ContainerUpdate) (*queue.Job, error) {
	return f.enqueue(ctx, update)
}

func (f *Facade) enqueue(ctx context.Context, p payload.Payload) (*queue.Job, error) {
	raw, err := payload.Encode(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	job, err := f.store.Enqueue(ctx, p.Kind(), raw)
	if err != nil {
		return nil, err
	}
	f.logger.Info("operation queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobKind, string(job.Kind)),
		logging.String(logging.FieldEventType, "operation_enqueued"))
	if f.engine != nil {
		f.engine.OnEnqueued()
	}
	return job, nil
}

// PendingCount returns the number of operations awaiting sync.
func (f *Facade) PendingCount(ctx context.Context) (int, error) {
	return f.store.Count(ctx)
}

// PendingSummaries returns display-ready descriptions of every queued
// operation, oldest first. Rows whose payload no longer decodes still appear,
// flagged as unreadable, so the user sees everything that is queued.
func (f *Facade) PendingSummaries(ctx context.Context) ([]queue.Summary, error) {
	jobs, err := f.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]queue.Summary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, job.Summary())
	}
	return summaries, nil
}

// IsSyncing reports whether a sync pass is currently running.
func (f *Facade) IsSyncing() bool {
	if f.engine == nil {
		return false
	}
	return f.engine.IsSyncing()
}

// LastSyncError returns the error recorded by the most recent sync pass.
func (f *Facade) LastSyncError() error {
	if f.engine == nil {
		return nil
	}
	return f.engine.LastSyncError()
}

// RunSyncPass executes one synchronous sync pass.
func (f *Facade) RunSyncPass(ctx context.Context) syncer.Result {
	if f.engine == nil {
		return syncer.Result{Skipped: true}
	}
	return f.engine.Run(ctx)
}

// DiscardContainer drops every queued operation that targets the given
// container, for example when the user deletes a container they created
// offline. It returns how many rows were removed.
func (f *Facade) DiscardContainer(ctx context.Context, containerID string) (int64, error) {
	removed, err := f.store.RemoveForContainer(ctx, containerID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		f.logger.Info("queued operations discarded",
			logging.String(logging.FieldContainerID, containerID),
			logging.Int64("removed", removed),
			logging.String(logging.FieldEventType, "operations_discarded"))
	}
	return removed, nil
}
