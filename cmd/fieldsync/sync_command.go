package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var waitOnline time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay queued operations against the remote service",
		Long: "Runs one sync pass and exits. With --watch the process stays up, " +
			"watching connectivity and draining the queue whenever the device " +
			"comes back online.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				lockPath := filepath.Join(cfg.Paths.LogDir, "fieldsync.lock")
				lock := flock.New(lockPath)
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire sync lock: %w", err)
				}
				if !ok {
					return errors.New("another fieldsync sync process is already running")
				}
				defer func() {
					_ = lock.Unlock()
				}()

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("initialize logging: %w", err)
				}
				client, err := ctx.newClient()
				if err != nil {
					return err
				}
				probe, err := ctx.newProbe()
				if err != nil {
					return err
				}
				engine := syncer.New(cfg, store, client, probe, logger)

				if watch {
					return runWatch(cmd, engine)
				}
				return runOnce(cmd, engine, probe, waitOnline)
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and sync whenever connectivity returns")
	cmd.Flags().DurationVar(&waitOnline, "wait-online", 0, "Wait up to this long for connectivity before the pass")
	return cmd
}

func runOnce(cmd *cobra.Command, engine *syncer.Engine, source connectivity.Source, waitOnline time.Duration) error {
	out := cmd.OutOrStdout()

	if waitOnline > 0 {
		deadline := time.Now().Add(waitOnline)
		for !source.Status(cmd.Context()).Online() {
			if time.Now().After(deadline) {
				return errors.New("device did not come online in time")
			}
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(2 * time.Second):
			}
		}
	}

	result := engine.Run(cmd.Context())
	switch {
	case result.Skipped:
		fmt.Fprintln(out, "A sync pass is already in progress")
	case result.Err != nil:
		fmt.Fprintf(out, "Sync finished with problems: %d replayed, %d still queued\n", result.Synced, result.Failed)
		return result.Err
	case result.Synced == 0:
		fmt.Fprintln(out, "Queue is empty; nothing to sync")
	default:
		fmt.Fprintf(out, "Sync complete: %d operations replayed\n", result.Synced)
	}
	return nil
}

func runWatch(cmd *cobra.Command, engine *syncer.Engine) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(runCtx); err != nil {
		return err
	}
	defer engine.Stop()

	// Kick an initial pass so pre-existing work drains without waiting for
	// a connectivity edge.
	engine.OnEnqueued()

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for queued operations; press Ctrl-C to stop")
	<-runCtx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "Stopping")
	return nil
}
