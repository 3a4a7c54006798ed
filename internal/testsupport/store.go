package testsupport

import (
	"context"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue validates, serializes, and enqueues a payload for tests.
func MustEnqueue(t testing.TB, store *queue.Store, p payload.Payload) *queue.Job {
	t.Helper()

	raw, err := payload.Encode(p)
	if err != nil {
		t.Fatalf("payload.Encode: %v", err)
	}
	job, err := store.Enqueue(context.Background(), p.Kind(), raw)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
