package ffmpeg

import (
	"bufio"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ProcessInfo describes one encoder invocation. It is replaced, never
// modified, whenever new information arrives.
type ProcessInfo struct {
	Executable string
	Args       []string
	PID        int
	StartedAt  time.Time
	EndedAt    time.Time     // zero while running
	Total      time.Duration // media duration, zero until known
}

// Ended reports whether the process has exited.
func (p ProcessInfo) Ended() bool { return !p.EndedAt.IsZero() }

// Elapsed is the wall time since start, up to EndedAt once ended.
func (p ProcessInfo) Elapsed(now time.Time) time.Duration {
	if p.StartedAt.IsZero() {
		return 0
	}
	if p.Ended() {
		now = p.EndedAt
	}
	return now.Sub(p.StartedAt)
}

func (p ProcessInfo) withTotal(total time.Duration) ProcessInfo {
	p.Total = total
	return p
}

func (p ProcessInfo) withEnd(at time.Time) ProcessInfo {
	p.EndedAt = at
	return p
}

var (
	inputRe     = regexp.MustCompile(`Input #0, (.+), from '(.+)':`)
	headerRe    = regexp.MustCompile(`Duration: (.+?), start: (.+?), bitrate: (\d+(?:\.\d+)?)\s?(\w+)/s`)
	streamRe    = regexp.MustCompile(`Stream #0:\d+`)
	startClipRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// BasicInfo is the container summary ffmpeg and ffprobe print for an input.
type BasicInfo struct {
	Format   string
	Name     string
	Duration time.Duration
	Start    time.Duration
	BitRate  int64 // bits per second
	Streams  []string
}

// HasDuration reports whether a duration was found.
func (b BasicInfo) HasDuration() bool { return b.Duration > 0 }

// ParseBasicInfo scans the banner text printed for "-i <file>".
func ParseBasicInfo(text string) BasicInfo {
	var info BasicInfo
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if m := inputRe.FindStringSubmatch(line); m != nil {
			if info.Format == "" {
				info.Format, info.Name = m[1], m[2]
			}
			continue
		}
		if m := headerRe.FindStringSubmatch(line); m != nil {
			if info.Duration == 0 {
				info.Duration, _ = ParseClock(m[1])
				if s := startClipRe.FindString(m[2]); s != "" {
					secs, _ := strconv.ParseFloat(s, 64)
					info.Start = time.Duration(math.Round(secs * float64(time.Second)))
				}
				rate, _ := strconv.ParseFloat(m[3], 64)
				info.BitRate = int64(rate * unitScale(strings.TrimSuffix(strings.ToLower(m[4]), "b")))
			}
			continue
		}
		if streamRe.MatchString(line) {
			info.Streams = append(info.Streams, strings.TrimSpace(line))
			continue
		}
		if info.Duration == 0 {
			if d, ok := ParseDuration(line); ok {
				info.Duration = d
			}
		}
	}
	return info
}
