package preflight

import (
	"context"

	"mediakiller/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// Preset directories are searched, never written.
	for _, dir := range cfg.Paths.PresetDirs {
		results = append(results, CheckDirectoryReadable("Preset directory", dir))
	}

	results = append(results, CheckFreeSpace(ctx, "State volume", cfg.Paths.StateDir, MinFreeBytes))
	return results
}
