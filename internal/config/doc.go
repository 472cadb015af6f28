// Package config loads and validates the mediakiller TOML configuration.
//
// Load starts from Default, decodes the file found via --config,
// MEDIAKILLER_CONFIG or ~/.config/mediakiller/config.toml, expands ~ in paths
// and validates every section before returning. Presets are not part of this
// file; they are loaded by the preset package.
package config
