// Package services defines the error taxonomy and context helpers shared by the
// mission pipeline.
//
// Failures are tagged with one of the sentinel markers through Wrap so the
// scheduler, journal and CLI can classify them (conflict, environment,
// external tool, cancellation) without string matching. The context helpers
// stamp run and mission identifiers for structured logging.
package services
