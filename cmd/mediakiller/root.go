package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts runOptions

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "mediakiller [flags] PRESET... SOURCE...",
		Short: "Batch transcode media files with ffmpeg presets",
		Long: `mediakiller applies every preset given on the command line to every source.

Arguments ending in .toml (or names with a .toml sibling) are presets; everything
else is a source: a media file, a folder, or an editing project (FCPXML, FCP7 XML,
EDL, OTIO, Resolve CSV, or a plain list of paths) whose media is extracted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runMissions(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.saveScript, "save-script", "s", "", "Write the commands to a script instead of running them")
	flags.StringVar(&opts.sort, "sort", "", "Mission order: source, target, preset or x (as given)")
	flags.BoolVarP(&opts.overwrite, "overwrite", "y", false, "Overwrite existing outputs regardless of the preset")
	flags.BoolVarP(&opts.noOverwrite, "no-overwrite", "n", false, "Never overwrite existing outputs")
	flags.BoolVarP(&opts.pretend, "pretend", "p", false, "Print the commands without running them")
	flags.BoolVarP(&opts.resume, "continue", "c", false, "Skip missions a previous run finished")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Number of concurrent encoders (default from config)")
	rootCmd.MarkFlagsMutuallyExclusive("overwrite", "no-overwrite")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newPresetsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
