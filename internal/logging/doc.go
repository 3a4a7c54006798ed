// Package logging builds slog loggers with console and JSON handlers and
// standardizes the attribute keys used across the sync engine.
package logging
