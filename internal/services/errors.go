package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrConflict      = errors.New("input/output conflict")
	ErrEnvironment   = errors.New("environment error")
	ErrExternalTool  = errors.New("external tool error")
	ErrCanceled      = errors.New("canceled")
	ErrForceStopped  = errors.New("force stopped")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Reason maps an error to the short label recorded in the run journal and
// shown in summaries.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrForceStopped):
		return "force_stopped"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrEnvironment):
		return "environment"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "mission failure"
	}
	return strings.Join(parts, ": ")
}
