// Package executor holds the per-kind logic that turns a stored payload into
// remote calls.
//
// Each executor distinguishes the job's primary call, whose failure keeps the
// row queued for the next pass, from secondary steps (image deletion and
// upload during an update) that are best-effort and only warn. Delete-by-id
// treats 404 as success so retried passes stay idempotent.
package executor
