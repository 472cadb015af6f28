package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"mediakiller/internal/config"
	"mediakiller/internal/expand"
	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/interrupt"
	"mediakiller/internal/journal"
	"mediakiller/internal/logging"
	"mediakiller/internal/media/ffprobe"
	"mediakiller/internal/mission"
	"mediakiller/internal/notifications"
	"mediakiller/internal/preflight"
	"mediakiller/internal/preset"
	"mediakiller/internal/scheduler"
	"mediakiller/internal/script"
	"mediakiller/internal/services"
	"mediakiller/internal/textutil"
)

type runOptions struct {
	saveScript  string
	sort        string
	overwrite   bool
	noOverwrite bool
	pretend     bool
	resume      bool
	debug       bool
	jobs        int
}

// overwriteOption maps -y/-n onto a builder option; neither flag keeps the
// preset's own setting.
func (o runOptions) overwriteOption() mission.BuilderOption {
	switch {
	case o.overwrite:
		return mission.WithOverwrite(true)
	case o.noOverwrite:
		return mission.WithOverwrite(false)
	}
	return nil
}

// workers is the concurrency for both mission building and encoding; -j
// overrides the configured value.
func (o runOptions) workers(cfg *config.Config) int {
	return max(textutil.Ternary(o.jobs > 0, o.jobs, cfg.Encoder.Workers), 1)
}

func runMissions(cmd *cobra.Command, cc *commandContext, opts runOptions, args []string) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	if opts.overwrite && opts.noOverwrite {
		return services.Wrap(services.ErrConfiguration, "cli", "flags", "--overwrite and --no-overwrite are exclusive", nil)
	}
	sortMode, err := mission.ParseSortMode(textutil.Ternary(opts.sort != "", opts.sort, cfg.Run.Sort))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "sort", "", err)
	}

	runID := uuid.NewString()
	logger, logPath, err := logging.NewFromConfig(cfg, runID, opts.debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: logging.RunLogPattern,
		Exclude: []string{logPath},
	})

	ctx := services.WithRunID(cmd.Context(), runID)
	logger = logging.WithContext(ctx, logger)

	token := interrupt.NewToken()
	stopSignals := interrupt.Notify(ctx, token, cfg.EscalateAfter(), logger)
	defer stopSignals()

	presetArgs, sources := splitArguments(args, cfg.Paths.PresetDirs)
	if len(presetArgs) == 0 {
		return services.Wrap(services.ErrConfiguration, "cli", "arguments", "no preset given", nil)
	}
	if len(sources) == 0 {
		return services.Wrap(services.ErrConfiguration, "cli", "arguments", "no source given", nil)
	}

	registry := preset.NewRegistry(logger)
	if err := registry.LoadFiles(presetArgs...); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "load presets", "", err)
	}

	missions, err := buildMissions(ctx, cfg, registry.Presets(), sources, opts, token, logger)
	if err != nil {
		return err
	}
	arranged := mission.Arrange(missions, sortMode)
	for _, dup := range arranged.Duplicates {
		logger.Info("duplicate mission skipped",
			logging.String(logging.FieldMission, dup.Name()),
			logging.String(logging.FieldPreset, dup.PresetID()),
		)
	}
	missions = arranged.Missions

	if opts.saveScript != "" {
		path, err := script.Write(opts.saveScript, missions, script.Options{
			Dialect: script.HostDialect(),
			Encoder: cfg.Encoder.FFmpeg,
			Force:   opts.overwrite,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d commands to %s\n", len(missions), path)
		return nil
	}

	var j *journal.Journal
	if !opts.pretend {
		j, err = journal.Open(cfg.JournalPath())
		if err != nil {
			return err
		}
		defer j.Close()
	}

	if opts.resume && j != nil {
		pending, done, err := j.Pending(ctx, missions)
		if err != nil {
			return err
		}
		if len(done) > 0 {
			logger.Info("skipping missions finished by an earlier run", logging.Int("missions", len(done)))
		}
		missions = pending
	}
	if len(missions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do")
		return nil
	}

	if opts.pretend {
		dry := scheduler.New(scheduler.Options{Encoder: cfg.Encoder.FFmpeg, DryRun: true, Logger: logger})
		if _, err := dry.Run(ctx, token, missions); err != nil {
			return err
		}
		printCommands(cmd.OutOrStdout(), missions, cfg.Encoder.FFmpeg)
		return nil
	}

	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available {
			continue
		}
		logging.WarnWithContext(logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail),
			logging.Bool("optional", status.Optional),
		)
	}

	run, err := j.BeginRun(ctx, runID, len(missions), false)
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	if err := notifier.NotifyRunStarted(ctx, len(missions)); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed", logging.Error(err))
	}

	reporter := newProgressReporter(cmd.OutOrStdout(), logger)
	sched := scheduler.New(scheduler.Options{
		Workers:      opts.workers(cfg),
		GracePeriod:  cfg.GracePeriod(),
		PollInterval: cfg.PollInterval(),
		Encoder:      cfg.Encoder.FFmpeg,
		Prober:       ffprobe.New(cfg.FFprobeBinary(), cfg.Encoder.FFmpeg),
		Reporter:     reporter,
		Recorder:     journalRecorder(j, run.ID),
		Logger:       logger,
	})

	summary, runErr := sched.Run(ctx, token, missions)
	reporter.Done()

	// A forced stop may arrive while the run is being closed; the journal
	// write must still happen.
	if err := j.FinishRun(context.WithoutCancel(ctx), run.ID, journal.Totals{
		Finished:   summary.Finished,
		Terminated: summary.Terminated,
		Canceled:   summary.Canceled,
		Abandoned:  summary.Abandoned,
	}); err != nil {
		logging.WarnWithContext(logger, "journal finish failed", "journal_write_failed", logging.Error(err))
	}

	if err := notifier.NotifyRunCompleted(context.WithoutCancel(ctx), notifications.RunReport{
		Finished:   summary.Finished,
		Terminated: summary.Terminated,
		Canceled:   summary.Canceled,
		Abandoned:  summary.Abandoned,
		Elapsed:    summary.Elapsed,
	}); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed", logging.Error(err))
	}

	printSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), summary)
	if runErr != nil {
		return runErr
	}
	if code := summary.ExitCode(); code != 0 {
		return exitStatus{code: code}
	}
	return nil
}

// splitArguments separates preset arguments from sources, keeping the order
// each group was given in.
func splitArguments(args []string, presetDirs []string) (presets, sources []string) {
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if preset.IsPresetArg(arg) {
			path, ok := preset.Locate(arg, presetDirs)
			presets = append(presets, textutil.Ternary(ok, path, arg))
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			if path, ok := preset.Locate(arg, presetDirs); ok {
				presets = append(presets, path)
				continue
			}
		}
		sources = append(sources, arg)
	}
	return presets, sources
}

func buildMissions(ctx context.Context, cfg *config.Config, presets []*preset.Preset, sources []string, opts runOptions, token *interrupt.Token, logger *slog.Logger) ([]mission.Mission, error) {
	batches := make([]mission.Batch, 0, len(presets))
	for _, p := range presets {
		expander := expand.New(expand.Options{
			Suffixes:    p.SourceSuffixes,
			CancelCheck: token.IsRequested,
			Logger:      logger,
		})
		found, err := expander.Expand(ctx, sources)
		if err != nil {
			return nil, err
		}
		logger.Info("sources expanded",
			logging.String(logging.FieldPreset, p.ID),
			logging.Int("files", len(found)),
		)
		batches = append(batches, mission.Batch{
			Builder: mission.NewBuilder(p, opts.overwriteOption()),
			Sources: found,
		})
	}
	return mission.BuildAll(ctx, semaphore.NewWeighted(int64(opts.workers(cfg))), batches...)
}

func journalRecorder(j *journal.Journal, runID string) scheduler.Recorder {
	return scheduler.RecorderFunc(func(ctx context.Context, o scheduler.Outcome) error {
		rec := journal.MissionRecord{
			RunID:     runID,
			Source:    o.Mission.Source,
			PresetID:  o.Mission.PresetID(),
			Outputs:   o.Mission.OutputFiles(),
			State:     o.State.String(),
			Reason:    services.Reason(o.Err),
			ExitCode:  o.ExitCode,
			StartedAt: o.Process.StartedAt,
			EndedAt:   o.Process.EndedAt,
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		return j.Record(context.WithoutCancel(ctx), rec)
	})
}

func printCommands(out io.Writer, missions []mission.Mission, encoder string) {
	for _, line := range script.Lines(missions, script.Options{Dialect: script.HostDialect(), Encoder: encoder}) {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintln(out, line)
	}
}

func printSummary(out, errOut io.Writer, summary scheduler.Summary) {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		rows = append(rows, []string{
			o.Mission.PresetID(),
			o.Mission.Name(),
			o.State.String(),
			o.Process.Elapsed(o.Process.EndedAt).Round(time.Second).String(),
			outcomeDetail(o),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Preset", "Source", "State", "Elapsed", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Finished %d, terminated %d, canceled %d in %s\n",
		summary.Finished, summary.Terminated, summary.Canceled, summary.Elapsed.Round(time.Second))
	if summary.Abandoned {
		fmt.Fprintln(out, "Run abandoned; encoders were killed")
	}

	for _, o := range summary.Outcomes {
		if o.State != ffmpeg.StateTerminated || strings.TrimSpace(o.Diagnostics) == "" {
			continue
		}
		fmt.Fprintf(errOut, "\n--- %s (%s) exit %d ---\n%s\n", o.Mission.Name(), o.Mission.PresetID(), o.ExitCode, strings.TrimRight(o.Diagnostics, "\n"))
	}
}

func outcomeDetail(o scheduler.Outcome) string {
	if o.Err != nil {
		// Preflight rejections carry the path that caused them.
		if errors.Is(o.Err, services.ErrConflict) || errors.Is(o.Err, services.ErrEnvironment) {
			return o.Err.Error()
		}
		return services.Reason(o.Err)
	}
	if len(o.Removed) > 0 {
		return fmt.Sprintf("removed %d partial output(s)", len(o.Removed))
	}
	return ""
}
