// Package queue persists offline mutations in SQLite until a sync pass
// confirms their remote effect.
//
// The Store manages the database connection, idempotent schema creation and
// column backfill for older databases, and the repository operations the sync
// engine needs: enqueue, pending snapshot, idempotent delete, failure marking,
// and counts. Jobs carry their payload as stored text; decoding and validation
// live in the payload package so a corrupt row degrades to a visible failed
// job instead of breaking the queue.
//
// A job exists from the moment a mutation is accepted until the sync engine
// confirms its primary remote call succeeded; deletion is the only success
// state.
package queue
