package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediakiller/internal/notifications"
	"mediakiller/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := false

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Path
				if !s.Available {
					detail = s.Detail
					failed = failed || !s.Optional
				}
				rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), yesNo(s.Optional), detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Available", "Optional", "Detail"},
				rows,
				nil,
			))

			results := preflight.RunAll(cmd.Context(), cfg)
			rows = rows[:0]
			for _, r := range results {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
				failed = failed || !r.Passed
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))

			if notify {
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Notification failed: %v\n", err)
					failed = true
				} else if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, "Notifications disabled (notifications.ntfy_topic is empty)")
				} else {
					fmt.Fprintln(out, "Test notification sent")
				}
			}

			if failed {
				return exitStatus{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification")
	return cmd
}
