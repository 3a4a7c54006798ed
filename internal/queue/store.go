package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/config"
	"fieldsync/internal/payload"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database and evolves its schema.
// It is safe to call repeatedly against the same database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "queue.db"))
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Enqueue inserts a pending job with pre-serialized payload text and returns
// the stored row. Storage errors propagate to the caller.
func (s *Store) Enqueue(ctx context.Context, kind payload.Kind, rawPayload string) (*Job, error) {
	if !payload.Known(kind) {
		return nil, fmt.Errorf("enqueue: unknown kind %q", kind)
	}
	now := time.Now().UTC().UnixMilli()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queued_operations (payload, created_at, updated_at, status, kind)
         VALUES (?, ?, ?, ?, ?)`,
		rawPayload,
		now,
		now,
		StatusPending,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing id yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM queued_operations WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListPending returns jobs awaiting sync (pending and failed alike), oldest
// first. Payloads are returned as stored; decoding happens at dispatch so one
// corrupt row never breaks the listing.
func (s *Store) ListPending(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM queued_operations
         WHERE status IN (?, ?) ORDER BY created_at, id`,
		StatusPending,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Remove deletes a job by identifier. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queued_operations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkFailed records a truncated failure reason and flips the job to failed.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queued_operations SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		Truncate(message),
		time.Now().UTC().UnixMilli(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// Count returns the number of jobs awaiting sync.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM queued_operations WHERE status IN (?, ?)`,
		StatusPending,
		StatusFailed,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queued_operations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// RetryFailed clears failure state so failed jobs are retried as fresh
// pending rows. With no ids, every failed job is reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().UnixMilli()
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queued_operations SET status = ?, last_error = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			now,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	query := `UPDATE queued_operations SET status = ?, last_error = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// RemoveForContainer deletes every queued job referencing the given container
// id. Used when a container is discarded locally before it ever synced.
func (s *Store) RemoveForContainer(ctx context.Context, containerID string) (int64, error) {
	if containerID == "" {
		return 0, nil
	}
	jobs, err := s.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, job := range jobs {
		if job.Summary().ContainerID != containerID {
			continue
		}
		ok, err := s.Remove(ctx, job.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Clear removes all jobs from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queued_operations`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed jobs from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queued_operations WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

const jobColumns = "id, kind, payload, status, last_error, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id        int64
		kind      string
		rawData   string
		statusStr string
		lastError sql.NullString
		createdAt int64
		updatedAt sql.NullInt64
	)

	if err := scanner.Scan(&id, &kind, &rawData, &statusStr, &lastError, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return &Job{
		ID:         id,
		Kind:       payload.Kind(kind),
		RawPayload: rawData,
		Status:     Status(statusStr),
		LastError:  lastError.String,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt.Int64,
	}, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
