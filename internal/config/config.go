package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath overrides the default config location when set.
const EnvConfigPath = "MEDIAKILLER_CONFIG"

// Paths contains directory configuration.
type Paths struct {
	LogDir     string   `toml:"log_dir"`
	StateDir   string   `toml:"state_dir"`
	PresetDirs []string `toml:"preset_dirs"`
}

// Encoder contains external binary and process supervision settings.
type Encoder struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	Workers        int    `toml:"workers"`
	GraceSeconds   int    `toml:"grace_seconds"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// Run contains scheduling behaviour defaults that CLI flags may override.
type Run struct {
	Sort            string `toml:"sort"`
	EscalateSeconds int    `toml:"escalate_seconds"`
}

// Logging contains log output settings.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains the optional ntfy settings.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config is the application configuration.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Encoder       Encoder       `toml:"encoder"`
	Run           Run           `toml:"run"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediakiller/config.toml")
}

// Load reads configuration from disk, applies defaults, normalizes paths and
// validates the result. It returns the config, the resolved path and whether
// a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath is the location of the run journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// FFprobeBinary returns the configured prober, or the ffprobe that sits next to
// the configured ffmpeg.
func (c *Config) FFprobeBinary() string {
	if probe := strings.TrimSpace(c.Encoder.FFprobe); probe != "" {
		return probe
	}
	return CompanionProbe(c.Encoder.FFmpeg)
}

// GracePeriod is how long a canceled encoder may take to exit before it is killed.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Encoder.GraceSeconds) * time.Second
}

// PollInterval is the progress aggregation period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Encoder.PollIntervalMS) * time.Millisecond
}

// EscalateAfter is how long a stop request may remain unresolved before it
// is forced. Zero disables automatic escalation.
func (c *Config) EscalateAfter() time.Duration {
	return time.Duration(c.Run.EscalateSeconds) * time.Second
}

// CompanionProbe derives the prober binary for an encoder path, e.g.
// /opt/ff/bin/ffmpeg -> /opt/ff/bin/ffprobe.
func CompanionProbe(encoder string) string {
	encoder = strings.TrimSpace(encoder)
	if encoder == "" {
		return defaultFFprobe
	}
	dir, base := filepath.Split(encoder)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if !strings.EqualFold(stem, "ffmpeg") {
		return defaultFFprobe
	}
	probe := "ffprobe" + ext
	if dir == "" {
		return probe
	}
	return filepath.Join(dir, probe)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
