// Package logging assembles the structured slog loggers used by mediakiller.
//
// It owns the console and JSON handlers, the level and output plumbing, the
// per-run log file naming, and a handful of attribute helpers so mission,
// driver and scheduler code tag their lines with the same keys. A no-op logger
// is provided for tests and for wiring code that cannot fail.
package logging
