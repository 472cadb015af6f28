// Package notifications publishes run milestones to ntfy.
//
// NewService returns a no-op Service when no topic is configured, so callers
// never check whether notifications are enabled. Messages are plain text with
// ntfy's Title, Tags and Priority headers.
package notifications
