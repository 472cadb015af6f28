package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakiller/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			j, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				records, err := j.Missions(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintf(out, "No missions recorded for run %s\n", runID)
					return nil
				}
				fmt.Fprintln(out, renderMissionRecords(records))
				return nil
			}

			runs, err := j.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the missions of one run")
	return cmd
}

func renderRuns(runs []journal.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "running"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		flags := ""
		switch {
		case r.Abandoned:
			flags = "abandoned"
		case r.DryRun:
			flags = "dry run"
		}
		rows = append(rows, []string{
			r.ID,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			duration,
			strconv.Itoa(r.MissionCount),
			strconv.Itoa(r.Finished),
			strconv.Itoa(r.Terminated),
			strconv.Itoa(r.Canceled),
			flags,
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Duration", "Missions", "Finished", "Terminated", "Canceled", "Notes"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderMissionRecords(records []journal.MissionRecord) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		elapsed := ""
		if !rec.StartedAt.IsZero() && !rec.EndedAt.IsZero() {
			elapsed = rec.EndedAt.Sub(rec.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			rec.PresetID,
			rec.Source,
			rec.State,
			rec.Reason,
			strconv.Itoa(rec.ExitCode),
			elapsed,
		})
	}
	return renderTable(
		[]string{"Preset", "Source", "State", "Reason", "Exit", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}
