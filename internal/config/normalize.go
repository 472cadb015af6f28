package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeRun()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	dirs := make([]string, 0, len(c.Paths.PresetDirs))
	for _, dir := range c.Paths.PresetDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.preset_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Paths.PresetDirs = dirs
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpeg = strings.TrimSpace(c.Encoder.FFmpeg)
	if c.Encoder.FFmpeg == "" {
		c.Encoder.FFmpeg = defaultFFmpeg
	}
	c.Encoder.FFprobe = strings.TrimSpace(c.Encoder.FFprobe)
	if c.Encoder.Workers == 0 {
		c.Encoder.Workers = DefaultWorkers()
	}
	if c.Encoder.PollIntervalMS == 0 {
		c.Encoder.PollIntervalMS = defaultPollIntervalMS
	}
}

func (c *Config) normalizeRun() {
	c.Run.Sort = strings.ToLower(strings.TrimSpace(c.Run.Sort))
	if c.Run.Sort == "" {
		c.Run.Sort = defaultSort
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
