package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	missionKey contextKey = "mission"
)

// WithRunID annotates context with the scheduler run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithMission annotates context with the mission name.
func WithMission(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, missionKey, name)
}

// MissionFromContext extracts the mission name if present.
func MissionFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(missionKey).(string)
	return v, ok && v != ""
}
