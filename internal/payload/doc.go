// Package payload models the kind-tagged bodies of queued jobs.
//
// Each queued mutation is stored as serialized JSON whose schema depends on
// the job kind. This package is the single place that knows those schemas:
// it validates payloads when they are enqueued and again when they are read
// back, so a corrupt row is caught at decode time rather than mid-dispatch.
package payload
