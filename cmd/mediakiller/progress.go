package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/logging"
	"mediakiller/internal/mission"
	"mediakiller/internal/scheduler"
)

// progressReporter redraws a single status line when out is a terminal and
// falls back to sampled log lines otherwise.
type progressReporter struct {
	out     io.Writer
	logger  *slog.Logger
	tty     bool
	sampler *logging.ProgressSampler

	mu       sync.Mutex
	drawn    int
	lastLine string
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	return &progressReporter{
		out:     out,
		logger:  logger,
		tty:     isTerminal(out),
		sampler: logging.NewProgressSampler(10),
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *progressReporter) Progress(p scheduler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.tty {
		label := fmt.Sprintf("%d/%d", p.Ended(), p.Missions)
		if r.sampler.ShouldLog(p.Percent(), label) {
			r.logger.Info("run progress",
				logging.Int("ended", p.Ended()),
				logging.Int("missions", p.Missions),
				logging.Int("running", p.Running),
				logging.Float64("percent", p.Percent()),
				logging.Duration("remaining", p.Remaining()),
			)
		}
		return
	}
	r.draw(formatProgress(p))
}

func (r *progressReporter) MissionEvent(m mission.Mission, e ffmpeg.Event) {
	switch e.Kind {
	case ffmpeg.EventStarted, ffmpeg.EventFinished, ffmpeg.EventTerminated, ffmpeg.EventCanceled:
	default:
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tty {
		return
	}
	r.clear()
	fmt.Fprintf(r.out, "%-10s %s [%s]\n", e.Kind, m.Name(), m.PresetID())
	if r.lastLine != "" {
		r.draw(r.lastLine)
	}
}

// Done ends the status line so the summary starts on a fresh row.
func (r *progressReporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tty && r.drawn > 0 {
		fmt.Fprintln(r.out)
		r.drawn = 0
	}
}

func (r *progressReporter) draw(line string) {
	pad := max(r.drawn-len(line), 0)
	fmt.Fprintf(r.out, "\r%s%s", line, strings.Repeat(" ", pad))
	r.drawn = len(line)
	r.lastLine = line
}

func (r *progressReporter) clear() {
	if r.drawn == 0 {
		return
	}
	fmt.Fprintf(r.out, "\r%s\r", strings.Repeat(" ", r.drawn))
	r.drawn = 0
}

func formatProgress(p scheduler.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %5.1f%%  %d/%d done, %d running", bar(p.Percent(), 24), p.Percent(), p.Ended(), p.Missions, p.Running)
	if p.Terminated > 0 {
		fmt.Fprintf(&b, ", %d failed", p.Terminated)
	}
	fmt.Fprintf(&b, "  elapsed %s", p.Elapsed.Round(time.Second))
	if remaining := p.Remaining(); remaining > 0 {
		now := time.Now()
		fmt.Fprintf(&b, ", %s", humanize.RelTime(now, now.Add(remaining), "left", ""))
	}
	return b.String()
}

func bar(percent float64, width int) string {
	filled := min(max(int(percent/100*float64(width)), 0), width)
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
