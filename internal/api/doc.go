// Package api implements the authenticated HTTP surface the job executors
// consume: JSON requests, multipart uploads, and deletes against the
// inspection service, with session tokens attached per request and non-2xx
// responses surfaced as typed status errors.
package api
