package logging

import (
	"context"
	"log/slog"

	"mediakiller/internal/services"
)

const (
	// FieldComponent names the subsystem emitting the line.
	FieldComponent = "component"
	// FieldRunID identifies one invocation of the scheduler.
	FieldRunID = "run_id"
	// FieldMission is the mission name (source stem).
	FieldMission = "mission"
	// FieldPreset is the preset id.
	FieldPreset = "preset"
	FieldSource = "source"
	FieldTarget = "target"
	// FieldEventType classifies the line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if name, ok := services.MissionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMission, name))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
