package queue_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestEnqueueAssignsIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"code": "MSKU100"}})
	second := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"code": "MSKU101"}})

	if first.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
	if first.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", first.Status)
	}
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Enqueue(context.Background(), payload.Kind("bogus"), "{}"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestListPendingOrdersOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		job := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"seq": i}})
		ids = append(ids, job.ID)
	}

	// A failed row stays in the snapshot at its original position.
	if err := store.MarkFailed(ctx, ids[1], "remote rejected"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	jobs, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, job := range jobs {
		if job.ID != ids[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, ids[i], job.ID)
		}
	}
	if jobs[1].Status != queue.StatusFailed {
		t.Fatalf("expected failed status preserved, got %s", jobs[1].Status)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"a": 1}})

	removed, err := store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected row to be removed")
	}

	removed, err = store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if removed {
		t.Fatal("expected no-op for absent id")
	}

	if _, err := store.Remove(ctx, 9999); err != nil {
		t.Fatalf("Remove of never-existing id: %v", err)
	}
}

func TestMarkFailedTruncatesError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"a": 1}})

	long := strings.Repeat("x", 600)
	if err := store.MarkFailed(ctx, job.ID, long); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", fetched.Status)
	}
	if len(fetched.LastError) != queue.MaxErrorLength {
		t.Fatalf("expected error truncated to %d, got %d", queue.MaxErrorLength, len(fetched.LastError))
	}
}

func TestCountIncludesFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"a": 1}})
	testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"b": 2}})
	if err := store.MarkFailed(ctx, a.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestStatsKeysCoveredByAllStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"a": 1}})
	testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"b": 2}})
	if err := store.MarkFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	for status := range stats {
		known := false
		for _, candidate := range queue.AllStatuses {
			if candidate == status {
				known = true
				break
			}
		}
		if !known {
			t.Fatalf("Stats produced status %q missing from AllStatuses", status)
		}
	}
	if len(queue.AllStatuses) != 2 {
		t.Fatalf("expected 2 statuses, got %v", queue.AllStatuses)
	}
}

func TestCorruptPayloadDoesNotBreakListing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.Enqueue(ctx, payload.KindContainerCreate, "{definitely not json")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	jobs, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected corrupt row to be listed, got %d rows", len(jobs))
	}
	if _, err := jobs[0].Decode(); err == nil {
		t.Fatal("expected decode failure")
	}
	summary := jobs[0].Summary()
	if summary.ID != job.ID {
		t.Fatalf("unexpected summary id %d", summary.ID)
	}
	if !strings.Contains(summary.Label, "unreadable") {
		t.Fatalf("expected unreadable marker in label, got %q", summary.Label)
	}
}

func TestRetryFailedResetsState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"a": 1}})
	b := testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"b": 2}})
	for _, job := range []*queue.Job{a, b} {
		if err := store.MarkFailed(ctx, job.ID, "boom"); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}

	count, err := store.RetryFailed(ctx, a.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reset, got %d", count)
	}

	fetched, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusPending || fetched.LastError != "" {
		t.Fatalf("expected reset row, got %#v", fetched)
	}

	fetched, err = store.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusFailed {
		t.Fatal("expected untouched row to stay failed")
	}
}

func TestRemoveForContainer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	update := payload.ContainerUpdate{ContainerID: "c-5", Body: map[string]any{"a": 1}}
	testsupport.MustEnqueue(t, store, update)
	testsupport.MustEnqueue(t, store, payload.ContainerUpdate{ContainerID: "c-6", Body: map[string]any{"b": 2}})
	testsupport.MustEnqueue(t, store, payload.ContainerCreate{Body: map[string]any{"c": 3}})

	removed, err := store.RemoveForContainer(ctx, "c-5")
	if err != nil {
		t.Fatalf("RemoveForContainer: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 remaining, got %d", count)
	}
}

func TestOpenBackfillsKindColumn(t *testing.T) {
	base := t.TempDir()
	dbPath := filepath.Join(base, "queue.db")

	// Seed a database with the pre-kind schema.
	legacy, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	if _, err := legacy.Exec(`CREATE TABLE queued_operations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        payload TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        status TEXT NOT NULL DEFAULT 'pending',
        last_error TEXT
    )`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := legacy.Exec(
		`INSERT INTO queued_operations (payload, created_at, status) VALUES (?, ?, ?)`,
		`{"body":{"action":"reseal"}}`, 1700000000000, "pending",
	); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}
	if err := legacy.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	store, err := queue.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jobs, err := store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected surviving row, got %d", len(jobs))
	}
	if jobs[0].Kind != payload.KindOperation {
		t.Fatalf("expected default kind, got %q", jobs[0].Kind)
	}

	// Re-opening is a no-op.
	second, err := queue.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("second OpenPath: %v", err)
	}
	second.Close()
}

func TestCheckHealthReportsColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}
