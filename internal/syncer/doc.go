// Package syncer drains the durable operation queue against the remote API.
//
// A pass only starts when a session token exists and the connectivity source
// reports the device online. Rows are replayed oldest first; a failure marks
// its row and moves on, so one bad operation never blocks the rest. Success
// is deletion: a row that survives a pass is still queued.
package syncer
