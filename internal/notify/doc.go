// Package notify delivers push notifications about sync activity through
// ntfy. When no topic is configured the service degrades to a noop so callers
// never need to branch on whether notifications are enabled.
package notify
