package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediakiller/internal/config"
	"mediakiller/internal/testsupport"
)

const probeBanner = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mov':
  Duration: 00:00:02.00, start: 0.000000, bitrate: 100 kb/s
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	presetDir  string
	mediaDir   string
}

// setupCLITestEnv writes a config pointing at temp directories, a stub
// encoder that writes its last argument, and a stub ffprobe.
func setupCLITestEnv(t *testing.T, encoderScript string) *cliTestEnv {
	t.Helper()

	if encoderScript == "" {
		encoderScript = `for last; do :; done; printf 'encoded' > "$last"`
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubEncoder(encoderScript))
	base := testsupport.BaseDir(cfg)
	cfg.Encoder.FFprobe = testsupport.WriteStubBinary(t, filepath.Join(base, "bin"), "ffprobe",
		"cat >&2 <<'EOF'\n"+probeBanner+"EOF")

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "config.toml"),
		presetDir:  filepath.Join(base, "presets"),
		mediaDir:   filepath.Join(base, "media"),
	}
	cfg.Paths.PresetDirs = []string{env.presetDir}
	for _, dir := range []string{env.presetDir, env.mediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nlog_dir = %q\nstate_dir = %q\npreset_dirs = [%q]\n\n",
		cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.Paths.PresetDirs[0])
	fmt.Fprintf(&b, "[encoder]\nffmpeg = %q\nffprobe = %q\nworkers = %d\ngrace_seconds = %d\npoll_interval_ms = %d\n",
		cfg.Encoder.FFmpeg, cfg.Encoder.FFprobe, cfg.Encoder.Workers, cfg.Encoder.GraceSeconds, cfg.Encoder.PollIntervalMS)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writePreset stores a preset named id that copies sources into out/.
func (e *cliTestEnv) writePreset(t *testing.T, id string) string {
	t.Helper()
	body := fmt.Sprintf(`[general]
preset_id = %q
name = "Test %s"
hardware_accelerate = ""

[source]
suffix_includes = [".mov"]

[target]
suffix = ".mp4"
folder = "out"

[[input]]
filename = "${source:absolute}"

[[output]]
filename = "${target:absolute}"
options = "-c copy"
`, id, id)
	path := filepath.Join(e.presetDir, id+".toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func (e *cliTestEnv) writeMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
