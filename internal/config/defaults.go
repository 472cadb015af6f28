package config

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
)

const (
	defaultLogDir          = "~/.local/share/mediakiller/logs"
	defaultStateDir        = "~/.local/share/mediakiller"
	defaultFFmpeg          = "ffmpeg"
	defaultFFprobe         = "ffprobe"
	defaultGraceSeconds    = 4
	defaultPollIntervalMS  = 200
	defaultSort            = "x"
	defaultEscalateSeconds = 0
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultRetentionDays   = 30
	defaultNtfyTimeout     = 10
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Encoder: Encoder{
			FFmpeg:         defaultFFmpeg,
			Workers:        DefaultWorkers(),
			GraceSeconds:   defaultGraceSeconds,
			PollIntervalMS: defaultPollIntervalMS,
		},
		Run: Run{
			Sort:            defaultSort,
			EscalateSeconds: defaultEscalateSeconds,
		},
		Logging: Logging{
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
	}
}

// DefaultWorkers is half the physical core count, at least one. ffmpeg
// already spreads a single encode across threads.
func DefaultWorkers() int {
	cores, err := cpu.Counts(false)
	if err != nil || cores <= 0 {
		cores = runtime.NumCPU()
	}
	return max(1, cores/2)
}
