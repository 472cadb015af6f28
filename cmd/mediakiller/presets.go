package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediakiller/internal/logging"
	"mediakiller/internal/preset"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets [PRESET...]",
		Short: "List presets and report duplicate ids",
		Long:  "List the given presets, or every preset in the configured preset directories when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, ok := preset.Locate(arg, cfg.Paths.PresetDirs)
				if !ok {
					return fmt.Errorf("preset %q not found", arg)
				}
				paths = append(paths, path)
			}
			if len(args) == 0 {
				paths = discoverPresets(cfg.Paths.PresetDirs)
			}
			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintln(out, "No presets found")
				return nil
			}

			registry := preset.NewRegistry(logging.NewNop())
			if err := registry.LoadFiles(paths...); err != nil {
				return err
			}

			rows := make([][]string, 0, registry.Len())
			for _, p := range registry.Presets() {
				rows = append(rows, []string{
					p.ID,
					p.Label(),
					p.TargetSuffix,
					p.TargetFolder,
					strconv.Itoa(len(p.Inputs)),
					strconv.Itoa(len(p.Outputs)),
					p.Path,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Suffix", "Target folder", "Inputs", "Outputs", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))

			if conflicts := registry.Conflicts(); len(conflicts) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Duplicate preset ids (later files ignored):")
				for _, c := range conflicts {
					fmt.Fprintf(out, "  %s: kept %s, ignored %s\n", c.ID, c.Kept, c.Ignored)
				}
			}
			return nil
		},
	}
}

func discoverPresets(dirs []string) []string {
	var paths []string
	for _, dir := range dirs {
		entries, err := filepath.Glob(filepath.Join(dir, "*.toml"))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !strings.HasPrefix(filepath.Base(entry), ".") {
				paths = append(paths, entry)
			}
		}
	}
	return paths
}
