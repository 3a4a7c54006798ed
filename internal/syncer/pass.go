package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/api"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// Run executes a single sync pass and returns its outcome. When another pass
// is already in flight the call returns immediately with Skipped set and
// touches no rows.
func (e *Engine) Run(ctx context.Context) Result {
	if !e.syncing.CompareAndSwap(false, true) {
		return Result{Skipped: true}
	}
	defer e.syncing.Store(false)

	result := e.runPass(ctx)

	e.mu.Lock()
	e.last = result
	e.lastErr = result.Err
	e.mu.Unlock()
	return result
}

func (e *Engine) runPass(ctx context.Context) Result {
	passID := uuid.NewString()
	logger := e.logger.With(logging.String(logging.FieldPassID, passID))
	started := time.Now()
	result := Result{PassID: passID}

	finish := func() Result {
		result.Duration = time.Since(started)
		return result
	}

	if !e.client.Authenticated(ctx) {
		logger.Info("sync pass skipped: not authenticated",
			logging.String(logging.FieldEventType, "sync_skipped_auth"))
		result.Err = ErrNotAuthenticated
		return finish()
	}

	if !e.source.Status(ctx).Online() {
		logger.Info("sync pass skipped: offline",
			logging.String(logging.FieldEventType, "sync_skipped_offline"))
		result.Err = ErrNoConnectivity
		return finish()
	}

	jobs, err := e.store.ListPending(ctx)
	if err != nil {
		logger.Error("listing queued operations failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "sync_list_failed"))
		result.Err = fmt.Errorf("list queued operations: %w", err)
		return finish()
	}
	if len(jobs) == 0 {
		logger.Debug("sync pass found empty queue")
		return finish()
	}

	logger.Info("sync pass started",
		logging.Int("pending", len(jobs)),
		logging.String(logging.FieldEventType, "sync_started"))
	if err := e.notifier.NotifySyncStarted(ctx, len(jobs)); err != nil {
		logger.Warn("sync start notification failed", logging.Error(err))
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return finish()
		}
		err := e.replay(ctx, logger, job)
		if err == nil {
			result.Synced++
			continue
		}
		result.Failed++
		if errors.Is(err, api.ErrNotAuthenticated) {
			// The session expired mid-pass. Remaining rows stay pending
			// untouched; the next authentication trigger retries them.
			logger.Warn("sync pass aborted: session expired",
				logging.String(logging.FieldEventType, "sync_aborted_auth"))
			if nerr := e.notifier.NotifyAuthenticationRequired(ctx); nerr != nil {
				logger.Warn("authentication notification failed", logging.Error(nerr))
			}
			break
		}
	}

	if result.Failed > 0 {
		result.Err = fmt.Errorf("%w: %d of %d failed", ErrOperationsRemain, result.Failed, len(jobs))
	}

	logger.Info("sync pass finished",
		logging.Int("synced", result.Synced),
		logging.Int("failed", result.Failed),
		logging.String(logging.FieldEventType, "sync_finished"))
	if err := e.notifier.NotifySyncCompleted(ctx, result.Synced, result.Failed, time.Since(started)); err != nil {
		logger.Warn("sync completion notification failed", logging.Error(err))
	}
	return finish()
}

// replay applies one job and removes its row on success. A non-nil return
// means the row stays queued with the failure recorded on it.
func (e *Engine) replay(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	jobLogger := logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobKind, string(job.Kind)),
	)

	exec, ok := e.executors[job.Kind]
	if !ok {
		err := fmt.Errorf("no executor registered for kind %s", job.Kind)
		e.recordFailure(ctx, jobLogger, job, err)
		return err
	}

	if err := exec.Execute(ctx, job); err != nil {
		e.recordFailure(ctx, jobLogger, job, err)
		return err
	}

	if _, err := e.store.Remove(ctx, job.ID); err != nil {
		jobLogger.Error("removing synced operation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "sync_dequeue_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"))
		return fmt.Errorf("remove synced operation: %w", err)
	}
	jobLogger.Info("operation replayed",
		logging.String(logging.FieldEventType, "operation_synced"))
	return nil
}

func (e *Engine) recordFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, cause error) {
	logger.Warn("operation replay failed",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "operation_failed"))
	if err := e.store.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		logger.Error("marking operation failed errored",
			logging.Error(err),
			logging.String(logging.FieldEventType, "sync_mark_failed_errored"))
	}
}
