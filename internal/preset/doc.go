// Package preset loads transcoding presets from TOML files.
//
// A Preset is immutable once loaded. The Registry keeps presets in load
// order and reports files that reuse an id; the first file wins.
package preset
