package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"mediakiller/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Encoder.Workers = 2
	cfgVal.Encoder.GraceSeconds = 1
	cfgVal.Encoder.PollIntervalMS = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create config directories: %v", err)
	}

	return builder.cfg
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.Workers = n
	}
}

// WithStubEncoder writes a stub ffmpeg running script and points the config
// at it.
func WithStubEncoder(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.FFmpeg = WriteStubBinary(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", script)
	}
}

// WriteStubBinary writes an executable POSIX shell script named name into
// dir and returns its path. The test is skipped on Windows.
func WriteStubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
