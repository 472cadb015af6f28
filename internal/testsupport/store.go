package testsupport

import (
	"context"
	"testing"

	"mediakiller/internal/config"
	"mediakiller/internal/journal"
)

// MustOpenJournal opens the config's journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

// BeginRun starts a journal run for tests.
func BeginRun(t testing.TB, j *journal.Journal, missions int) journal.Run {
	t.Helper()

	run, err := j.BeginRun(context.Background(), "", missions, false)
	if err != nil {
		t.Fatalf("journal.BeginRun: %v", err)
	}
	return run
}
