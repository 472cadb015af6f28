package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mediakiller/internal/logging"
	"mediakiller/internal/scheduler"
)

func TestFormatProgress(t *testing.T) {
	line := formatProgress(scheduler.Progress{
		Missions:   4,
		Running:    1,
		Finished:   2,
		Terminated: 1,
		Completed:  30 * time.Second,
		Total:      60 * time.Second,
		Elapsed:    10 * time.Second,
	})
	for _, want := range []string{"50.0%", "3/4 done", "1 running", "1 failed", "elapsed 10s", "left"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestBarClamps(t *testing.T) {
	if got := bar(150, 4); got != "####" {
		t.Fatalf("bar(150) = %q", got)
	}
	if got := bar(-5, 4); got != "----" {
		t.Fatalf("bar(-5) = %q", got)
	}
	if got := bar(50, 4); got != "##--" {
		t.Fatalf("bar(50) = %q", got)
	}
}

func TestReporterWithoutTerminalWritesNothing(t *testing.T) {
	var out bytes.Buffer
	r := newProgressReporter(&out, logging.NewNop())
	r.Progress(scheduler.Progress{Missions: 1})
	r.Done()
	if out.Len() != 0 {
		t.Fatalf("non-terminal output should go to the log, got %q", out.String())
	}
}
