package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mediakiller/internal/logging"
	"mediakiller/internal/services"
)

// RunLog is one run's log file.
type RunLog struct {
	RunID   string
	Path    string
	ModTime time.Time
}

// List returns the run logs in dir, newest first.
func List(dir string) ([]RunLog, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.RunLogPattern))
	if err != nil {
		return nil, err
	}
	runs := make([]RunLog, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".log")
		runs = append(runs, RunLog{
			RunID:   strings.TrimPrefix(name, "mediakiller-"),
			Path:    path,
			ModTime: info.ModTime(),
		})
	}
	slices.SortStableFunc(runs, func(a, b RunLog) int {
		return b.ModTime.Compare(a.ModTime)
	})
	return runs, nil
}

// Find returns the log of runID, or the newest log when runID is empty. A
// unique prefix of a run id is enough.
func Find(dir, runID string) (RunLog, error) {
	runs, err := List(dir)
	if err != nil {
		return RunLog{}, err
	}
	if len(runs) == 0 {
		return RunLog{}, services.Wrap(services.ErrConfiguration, "logs", "find", fmt.Sprintf("no run logs in %s", dir), nil)
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return runs[0], nil
	}

	var found []RunLog
	for _, r := range runs {
		if r.RunID == runID {
			return r, nil
		}
		if strings.HasPrefix(r.RunID, runID) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return RunLog{}, services.Wrap(services.ErrConfiguration, "logs", "find", fmt.Sprintf("no log for run %q", runID), nil)
	case 1:
		return found[0], nil
	}
	return RunLog{}, services.Wrap(services.ErrConflict, "logs", "find", fmt.Sprintf("run id prefix %q matches %d logs", runID, len(found)), nil)
}
