package journal_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediakiller/internal/journal"
	"mediakiller/internal/mission"
	"mediakiller/internal/preset"
	"mediakiller/internal/services"
	"mediakiller/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	run := testsupport.BeginRun(t, j, 2)
	if run.ID == "" {
		t.Fatal("expected run id")
	}
	started := time.Now().Add(-time.Minute)
	if err := j.Record(ctx, journal.MissionRecord{
		RunID:     run.ID,
		Source:    "/media/a.mov",
		PresetID:  "h264",
		Outputs:   []string{"/out/a.mp4", "/out/a.txt"},
		State:     journal.StateFinished,
		StartedAt: started,
		EndedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record(ctx, journal.MissionRecord{
		RunID:    run.ID,
		Source:   "/media/b.mov",
		PresetID: "h264",
		State:    "terminated",
		Reason:   "external_tool",
		Error:    "exit status 1",
		ExitCode: 1,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.FinishRun(ctx, run.ID, journal.Totals{Finished: 1, Terminated: 1}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := j.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Finished != 1 || runs[0].Terminated != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].FinishedAt.IsZero() || runs[0].MissionCount != 2 {
		t.Fatalf("run not closed: %+v", runs[0])
	}

	records, err := j.Missions(ctx, run.ID)
	if err != nil {
		t.Fatalf("missions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(records[0].Outputs) != 2 || records[0].Outputs[1] != "/out/a.txt" {
		t.Fatalf("outputs = %q", records[0].Outputs)
	}
	if records[1].Reason != "external_tool" || records[1].ExitCode != 1 {
		t.Fatalf("unexpected failure record %+v", records[1])
	}
	if records[0].StartedAt.Unix() != started.Unix() {
		t.Fatalf("started_at = %v, want %v", records[0].StartedAt, started)
	}
}

func TestOpenRefusesSecondHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenJournal(t, cfg)

	_, err := journal.Open(cfg.JournalPath())
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	run := testsupport.BeginRun(t, j, 0)
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j2 := testsupport.MustOpenJournal(t, cfg)
	runs, err := j2.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("history lost: %+v", runs)
	}
}

func TestPendingSkipsFinishedMissionsWithOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()
	dir := t.TempDir()

	p := &preset.Preset{ID: "h264"}
	build := func(name string) mission.Mission {
		return mission.Mission{
			Preset:  p,
			Source:  filepath.Join(dir, name+".mov"),
			Outputs: []mission.ArgumentGroup{mission.NewArgumentGroup(filepath.Join(dir, name+".mp4"))},
		}
	}
	done, missing, fresh := build("done"), build("missing"), build("fresh")

	if err := os.WriteFile(done.OutputFiles()[0], []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := testsupport.BeginRun(t, j, 2)
	for _, m := range []mission.Mission{done, missing} {
		if err := j.Record(ctx, journal.MissionRecord{
			RunID:    run.ID,
			Source:   m.Key().Source,
			PresetID: m.PresetID(),
			Outputs:  m.OutputFiles(),
			State:    journal.StateFinished,
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	pending, skipped, err := j.Pending(ctx, []mission.Mission{done, missing, fresh})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(skipped) != 1 || !skipped[0].Equal(done) {
		t.Fatalf("skipped = %v", skipped)
	}
	if len(pending) != 2 || !pending[0].Equal(missing) || !pending[1].Equal(fresh) {
		t.Fatalf("pending = %v", pending)
	}
}
