package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"mediakiller/internal/deps"
	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/fileutil"
	"mediakiller/internal/logging"
	"mediakiller/internal/mission"
	"mediakiller/internal/services"
)

// execute runs mission i to completion and returns its outcome. It never
// returns before the mission's slot is marked ended.
func (r *run) execute(ctx context.Context, i int) Outcome {
	m := r.missions[i]
	logger := r.logger.With(
		logging.String(logging.FieldMission, m.Name()),
		logging.String(logging.FieldPreset, m.PresetID()),
	)

	if err := r.limiter.Acquire(ctx, 1); err != nil {
		return r.end(i, logger, Outcome{
			Mission: m,
			State:   ffmpeg.StateCanceled,
			Err:     services.Wrap(services.ErrCanceled, "scheduler", "acquire", "stopped before start", nil),
		})
	}
	defer r.limiter.Release(1)

	if ctx.Err() != nil {
		return r.end(i, logger, Outcome{
			Mission: m,
			State:   ffmpeg.StateCanceled,
			Err:     services.Wrap(services.ErrCanceled, "scheduler", "start", "stopped before start", nil),
		})
	}

	executable, err := r.s.preflight(m)
	if err != nil {
		return r.end(i, logger, Outcome{Mission: m, State: ffmpeg.StateCanceled, Err: err})
	}

	driver := ffmpeg.NewDriver(ffmpeg.Options{
		Executable:  executable,
		GracePeriod: r.s.grace,
		Logger:      logger,
		Observer: ffmpeg.ObserverFunc(func(e ffmpeg.Event) {
			if r.s.reporter != nil && !r.forced.Load() {
				r.s.reporter.MissionEvent(m, e)
			}
		}),
	})
	r.mu.Lock()
	r.slots[i].driver = driver
	r.mu.Unlock()

	logger.Info("mission starting",
		logging.String(logging.FieldSource, m.Source),
		logging.String(logging.FieldTarget, m.StandardTarget),
	)
	result, err := driver.Execute(ctx, m.Arguments())
	outcome := Outcome{
		Mission:  m,
		State:    result.State,
		ExitCode: result.ExitCode,
		Err:      err,
		Process:  result.Process,
		Status:   result.Status,
	}
	if result.State == ffmpeg.StateTerminated {
		outcome.Diagnostics = driver.Diagnostics()
	}
	if result.State != ffmpeg.StateFinished && !result.Process.StartedAt.IsZero() {
		outcome.Removed = removePartialOutputs(m, logger)
	}
	return r.end(i, logger, outcome)
}

func (r *run) end(i int, logger *slog.Logger, o Outcome) Outcome {
	r.mu.Lock()
	sl := r.slots[i]
	sl.ended = true
	sl.outcome = o
	if sl.weight <= 0 {
		sl.weight = o.Process.Total
	}
	r.mu.Unlock()

	switch o.State {
	case ffmpeg.StateFinished:
		logger.Info("mission finished", logging.Duration("elapsed", o.Process.Elapsed(o.Process.EndedAt)))
	case ffmpeg.StateTerminated:
		logging.ErrorWithContext(logger, "mission failed", "mission_terminated",
			logging.Int("exit_code", o.ExitCode),
			logging.Error(o.Err),
			logging.String(logging.FieldErrorHint, "see encoder diagnostics below"),
		)
	default:
		logger.Info("mission canceled", logging.String("reason", services.Reason(o.Err)), logging.Error(o.Err))
	}
	return o
}

// preflight rejects a mission before its encoder starts and returns the
// encoder to run. It also creates the output directories.
func (s *Scheduler) preflight(m mission.Mission) (string, error) {
	inputs := append(m.InputFiles(), m.Source)
	outputs := m.OutputFiles()
	for _, out := range outputs {
		for _, in := range inputs {
			if fileutil.SamePath(out, in) {
				return "", services.Wrap(services.ErrConflict, "preflight", "outputs",
					fmt.Sprintf("output %s is also an input", out), nil)
			}
		}
	}

	executable, err := deps.ResolveExecutable(s.executable(m))
	if err != nil {
		return "", err
	}

	if !m.Overwrite {
		for _, out := range outputs {
			if fileutil.Exists(out) {
				return "", services.Wrap(services.ErrConflict, "preflight", "outputs",
					fmt.Sprintf("output %s exists and overwrite is off", out), nil)
			}
		}
	}

	for _, out := range outputs {
		if !fileutil.IsLocalPath(out) {
			continue
		}
		if err := fileutil.EnsureParentDir(out); err != nil {
			return "", services.Wrap(services.ErrEnvironment, "preflight", "mkdir", out, err)
		}
	}
	return executable, nil
}

// removePartialOutputs deletes what an unfinished mission may have written,
// sparing any output that is also an input or the source.
func removePartialOutputs(m mission.Mission, logger *slog.Logger) []string {
	protected := append(m.InputFiles(), m.Source)
	var removed []string
outputs:
	for _, out := range m.OutputFiles() {
		if !fileutil.IsLocalPath(out) {
			continue
		}
		for _, p := range protected {
			if fileutil.SamePath(out, p) {
				continue outputs
			}
		}
		ok, err := fileutil.RemoveIfExists(out)
		if err != nil {
			logging.WarnWithContext(logger, "partial output not removed", "cleanup_failed",
				logging.String("path", out),
				logging.Error(err),
				logging.String(logging.FieldImpact, "a truncated file remains on disk"),
			)
			continue
		}
		if ok {
			removed = append(removed, out)
			logger.Info("partial output removed", logging.String("path", out))
		}
	}
	return removed
}
