package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediakiller/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [RUN_ID]",
		Short: "Show the log of the latest run, or of RUN_ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var runID string
			if len(args) == 1 {
				runID = args[0]
			}
			runLog, err := logs.Find(cfg.Paths.LogDir, runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := logs.TailOptions{Offset: -1, Limit: lines}
			for {
				result, err := logs.Tail(cmd.Context(), runLog.Path, opts)
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				if !follow {
					return nil
				}
				opts = logs.TailOptions{Offset: result.Offset, Follow: true, Wait: 5 * time.Second}
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
