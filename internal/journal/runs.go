package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run is one invocation of the scheduler.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	MissionCount int
	Finished     int
	Terminated   int
	Canceled     int
	Abandoned    bool
	DryRun       bool
}

// Totals are the counts written when a run ends.
type Totals struct {
	Finished   int
	Terminated int
	Canceled   int
	Abandoned  bool
}

// MissionRecord is the outcome of one mission within a run.
type MissionRecord struct {
	RunID     string
	Source    string
	PresetID  string
	Outputs   []string
	State     string
	Reason    string
	Error     string
	ExitCode  int
	StartedAt time.Time
	EndedAt   time.Time
}

// StateFinished is the mission state that continue mode trusts.
const StateFinished = "finished"

// BeginRun inserts a new run. An empty id gets a fresh UUID.
func (j *Journal) BeginRun(ctx context.Context, id string, missionCount int, dryRun bool) (Run, error) {
	if id == "" {
		id = uuid.NewString()
	}
	run := Run{
		ID:           id,
		StartedAt:    time.Now().UTC(),
		MissionCount: missionCount,
		DryRun:       dryRun,
	}
	err := j.exec(ctx,
		`INSERT INTO runs (id, started_at, mission_count, dry_run) VALUES (?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), run.MissionCount, boolInt(dryRun),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Record appends a mission outcome.
func (j *Journal) Record(ctx context.Context, rec MissionRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("record mission: missing run id")
	}
	err := j.exec(ctx,
		`INSERT INTO missions (
            run_id, source, preset_id, outputs, state, reason, error_message,
            exit_code, started_at, ended_at, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Source,
		rec.PresetID,
		strings.Join(rec.Outputs, "\n"),
		rec.State,
		nullableString(rec.Reason),
		nullableString(rec.Error),
		rec.ExitCode,
		formatTime(rec.StartedAt),
		formatTime(rec.EndedAt),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and totals of a run.
func (j *Journal) FinishRun(ctx context.Context, runID string, totals Totals) error {
	err := j.exec(ctx,
		`UPDATE runs SET finished_at = ?, finished = ?, terminated = ?, canceled = ?, abandoned = ?
         WHERE id = ?`,
		formatTime(time.Now()),
		totals.Finished,
		totals.Terminated,
		totals.Canceled,
		boolInt(totals.Abandoned),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. A non-positive limit
// returns all of them.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, mission_count, finished, terminated, canceled, abandoned, dry_run
        FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished sql.NullString
			abandoned, dryRun int
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.MissionCount,
			&run.Finished, &run.Terminated, &run.Canceled, &abandoned, &dryRun); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.Abandoned = abandoned != 0
		run.DryRun = dryRun != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Missions returns the outcomes recorded for a run in insertion order.
func (j *Journal) Missions(ctx context.Context, runID string) ([]MissionRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, source, preset_id, outputs, state, reason, error_message, exit_code, started_at, ended_at
         FROM missions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var records []MissionRecord
	for rows.Next() {
		rec, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastFinished returns the newest finished record for a source and preset.
func (j *Journal) LastFinished(ctx context.Context, source, presetID string) (MissionRecord, bool, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, source, preset_id, outputs, state, reason, error_message, exit_code, started_at, ended_at
         FROM missions WHERE source = ? AND preset_id = ? AND state = ?
         ORDER BY id DESC LIMIT 1`, source, presetID, StateFinished)
	if err != nil {
		return MissionRecord{}, false, fmt.Errorf("lookup mission: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return MissionRecord{}, false, rows.Err()
	}
	rec, err := scanMission(rows)
	if err != nil {
		return MissionRecord{}, false, err
	}
	return rec, true, nil
}

func scanMission(rows *sql.Rows) (MissionRecord, error) {
	var (
		rec                MissionRecord
		outputs            string
		reason, message    sql.NullString
		exitCode           sql.NullInt64
		startedAt, endedAt sql.NullString
	)
	if err := rows.Scan(&rec.RunID, &rec.Source, &rec.PresetID, &outputs, &rec.State,
		&reason, &message, &exitCode, &startedAt, &endedAt); err != nil {
		return MissionRecord{}, fmt.Errorf("scan mission: %w", err)
	}
	if outputs != "" {
		rec.Outputs = strings.Split(outputs, "\n")
	}
	rec.Reason = reason.String
	rec.Error = message.String
	rec.ExitCode = int(exitCode.Int64)
	rec.StartedAt = parseTime(startedAt)
	rec.EndedAt = parseTime(endedAt)
	return rec, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
