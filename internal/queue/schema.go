package queue

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS queued_operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER,
    status TEXT NOT NULL DEFAULT 'pending',
    last_error TEXT,
    kind TEXT NOT NULL DEFAULT 'operation'
);
CREATE INDEX IF NOT EXISTS idx_queued_operations_status ON queued_operations(status);
`

// backfillColumns lists columns added after the table first shipped. Older
// databases lack them; evolution adds the column with a default instead of
// rebuilding the table, so existing rows are never lost.
var backfillColumns = []struct {
	name string
	ddl  string
}{
	{"kind", `ALTER TABLE queued_operations ADD COLUMN kind TEXT NOT NULL DEFAULT 'operation'`},
	{"updated_at", `ALTER TABLE queued_operations ADD COLUMN updated_at INTEGER`},
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	present, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}
	for _, col := range backfillColumns {
		if _, ok := present[col.name]; ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}

func (s *Store) tableColumns(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(queued_operations)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}
