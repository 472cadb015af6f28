package script

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"mediakiller/internal/fileutil"
	"mediakiller/internal/mission"
	"mediakiller/internal/services"
	"mediakiller/internal/textutil"
)

// Dialect selects the shell a script is written for.
type Dialect int

const (
	POSIX Dialect = iota
	PowerShell
)

// HostDialect is the dialect for the running platform.
func HostDialect() Dialect {
	return textutil.Ternary(runtime.GOOS == "windows", PowerShell, POSIX)
}

// Suffix is the default script extension for the dialect.
func (d Dialect) Suffix() string {
	return textutil.Ternary(d == PowerShell, ".ps1", ".sh")
}

// Quote quotes one argument for the dialect.
func (d Dialect) Quote(s string) string {
	if d == PowerShell {
		return textutil.PowerShellQuote(s)
	}
	return textutil.ShellQuote(s)
}

// Options controls script generation.
type Options struct {
	Dialect Dialect
	// Encoder replaces "ffmpeg" for presets that do not name an executable.
	Encoder string
	// Force allows replacing an existing file.
	Force bool
}

// Lines renders the script: a header, one mkdir per missing output directory
// (first time it is needed) and one encoder command per mission.
func Lines(missions []mission.Mission, opts Options) []string {
	d := opts.Dialect
	lines := header(d)
	seen := make(map[string]bool)
	for _, m := range missions {
		for _, dir := range outputDirs(m) {
			if seen[dir] || fileutil.Exists(dir) {
				continue
			}
			seen[dir] = true
			lines = append(lines, mkdirLine(d, dir))
		}
		lines = append(lines, commandLine(d, executable(m, opts.Encoder), m.Arguments()))
	}
	return lines
}

// Write saves the script for missions at path and returns the path written.
// A path without an extension gets the dialect's suffix. An existing file is
// replaced only with Options.Force.
func Write(path string, missions []mission.Mission, opts Options) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrConfiguration, "script", "write", "empty script path", nil)
	}
	if filepath.Ext(path) == "" {
		path += opts.Dialect.Suffix()
	}
	if fileutil.Exists(path) && !opts.Force {
		return "", services.Wrap(services.ErrConflict, "script", "write",
			fmt.Sprintf("%s exists; use -y/--overwrite to replace it", path), nil)
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return "", services.Wrap(services.ErrEnvironment, "script", "write", path, err)
	}
	content := strings.Join(Lines(missions, opts), "\n") + "\n"
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0o755); err != nil {
		return "", services.Wrap(services.ErrEnvironment, "script", "write", path, err)
	}
	return path, nil
}

func header(d Dialect) []string {
	if d == PowerShell {
		return []string{"# generated by mediakiller", `$ErrorActionPreference = "Stop"`, ""}
	}
	return []string{"#!/bin/sh", "# generated by mediakiller", ""}
}

func mkdirLine(d Dialect, dir string) string {
	if d == PowerShell {
		return "New-Item -ItemType Directory -Force -Path " + d.Quote(dir) + " | Out-Null"
	}
	return "mkdir -p " + d.Quote(dir)
}

func commandLine(d Dialect, exe string, args []string) string {
	parts := make([]string, 0, len(args)+2)
	if d == PowerShell {
		// The call operator lets a quoted executable path run.
		parts = append(parts, "&")
	}
	parts = append(parts, d.Quote(exe))
	for _, a := range args {
		parts = append(parts, d.Quote(a))
	}
	return strings.Join(parts, " ")
}

func outputDirs(m mission.Mission) []string {
	var dirs []string
	for _, out := range m.OutputFiles() {
		if !fileutil.IsLocalPath(out) {
			continue
		}
		dir, err := filepath.Abs(filepath.Dir(out))
		if err != nil {
			continue
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func executable(m mission.Mission, fallback string) string {
	if m.Preset != nil && m.Preset.Executable != "" {
		return m.Preset.Executable
	}
	if fallback != "" {
		return fallback
	}
	return m.Executable()
}
