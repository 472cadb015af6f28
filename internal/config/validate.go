package config

import (
	"errors"
	"fmt"
	"slices"
)

// SortModes lists the accepted run.sort values.
var SortModes = []string{"x", "none", "source", "target", "preset"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if !slices.Contains(SortModes, c.Run.Sort) {
		return fmt.Errorf("run.sort must be one of %v, got %q", SortModes, c.Run.Sort)
	}
	if c.Run.EscalateSeconds < 0 {
		return errors.New("run.escalate_seconds must be zero or positive")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.FFmpeg == "" {
		return errors.New("encoder.ffmpeg must be set")
	}
	if c.Encoder.Workers < 1 {
		return errors.New("encoder.workers must be positive")
	}
	if c.Encoder.GraceSeconds < 1 {
		return errors.New("encoder.grace_seconds must be at least 1")
	}
	if c.Encoder.PollIntervalMS < 10 {
		return errors.New("encoder.poll_interval_ms must be at least 10")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
