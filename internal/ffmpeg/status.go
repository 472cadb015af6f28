package ffmpeg

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	frameRe    = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe      = regexp.MustCompile(`fps=\s*(\d+(?:\.\d+)?)`)
	qualityRe  = regexp.MustCompile(`\bq=\s*(-?\d+(?:\.\d+)?)`)
	sizeRe     = regexp.MustCompile(`L?size=\s*(\d+(?:\.\d+)?)\s*([kKmMgG]?i?B)`)
	timeRe     = regexp.MustCompile(`time=\s*(-?\d+:\d{2}:\d{2}(?:\.\d+)?)`)
	bitrateRe  = regexp.MustCompile(`bitrate=\s*(\d+(?:\.\d+)?)\s*([kKmMgG]?)bits/s`)
	speedRe    = regexp.MustCompile(`speed=\s*(\d+(?:\.\d+)?)x`)
	durationRe = regexp.MustCompile(`Duration:\s*(\d+:\d{2}:\d{2}(?:\.\d+)?)`)
)

// CodingStatus is one parsed encoder status line. A new value is built for
// every line; fields the line did not carry are zero.
type CodingStatus struct {
	Frame     int64
	FPS       float64
	Quantizer float64
	Size      int64         // bytes written so far
	Time      time.Duration // media timestamp reached
	Bitrate   float64       // kbit/s
	Speed     float64
	Raw       string
	CreatedAt time.Time
}

// ParseStatusLine extracts the encoder status from line. It reports false
// when the line carries no time= field.
func ParseStatusLine(line string, now time.Time) (CodingStatus, bool) {
	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return CodingStatus{}, false
	}
	current, ok := ParseClock(m[1])
	if !ok {
		return CodingStatus{}, false
	}
	status := CodingStatus{
		Time:      current,
		Raw:       strings.TrimSpace(line),
		CreatedAt: now,
	}
	if m := frameRe.FindStringSubmatch(line); m != nil {
		status.Frame, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		status.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := qualityRe.FindStringSubmatch(line); m != nil {
		status.Quantizer, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		status.Size = parseSize(m[1], m[2])
	}
	if m := bitrateRe.FindStringSubmatch(line); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		status.Bitrate = v * unitScale(m[2]) / 1000
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		status.Speed, _ = strconv.ParseFloat(m[1], 64)
	}
	return status, true
}

// ParseDuration finds the "Duration: HH:MM:SS.xx" header in line.
func ParseDuration(line string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return ParseClock(m[1])
}

// ParseClock parses HH:MM:SS[.frac]. A leading minus is accepted and yields a
// negative duration.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*float64(time.Second)))
	if negative {
		d = -d
	}
	return d, true
}

func parseSize(value, unit string) int64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	unit = strings.TrimSuffix(unit, "B")
	binary := strings.HasSuffix(unit, "i")
	unit = strings.TrimSuffix(unit, "i")
	scale := unitScale(unit)
	if binary {
		scale = binaryScale(unit)
	}
	return int64(v * scale)
}

func unitScale(prefix string) float64 {
	switch strings.ToLower(prefix) {
	case "k":
		return 1e3
	case "m":
		return 1e6
	case "g":
		return 1e9
	}
	return 1
}

func binaryScale(prefix string) float64 {
	switch strings.ToLower(prefix) {
	case "k":
		return 1 << 10
	case "m":
		return 1 << 20
	case "g":
		return 1 << 30
	}
	return 1
}
