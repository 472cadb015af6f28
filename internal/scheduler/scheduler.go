package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/interrupt"
	"mediakiller/internal/logging"
	"mediakiller/internal/mission"
	"mediakiller/internal/services"
)

// DefaultPollInterval is how often progress is aggregated and reported.
const DefaultPollInterval = 200 * time.Millisecond

// unknownWeight stands in for the duration of a mission whose length could
// not be learned, so it still moves the bar when it ends.
const unknownWeight = time.Second

// DefaultKillWait bounds how long a forced stop waits for killed missions to
// remove their partial outputs.
const DefaultKillWait = 2 * time.Second

// DurationProber reports the media duration of a source file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Reporter receives aggregate progress from the scheduler's poll loop and the
// events of every driver. MissionEvent is called from mission goroutines and
// must be safe for concurrent use.
type Reporter interface {
	Progress(Progress)
	MissionEvent(m mission.Mission, e ffmpeg.Event)
}

// Recorder persists mission outcomes. It is called from the goroutine running
// Run, one outcome at a time.
type Recorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, o Outcome) error

func (f RecorderFunc) RecordOutcome(ctx context.Context, o Outcome) error { return f(ctx, o) }

// Options configures a Scheduler.
type Options struct {
	Workers      int
	GracePeriod  time.Duration
	PollInterval time.Duration
	KillWait     time.Duration
	// Encoder is used for presets that do not name an executable.
	Encoder  string
	Prober   DurationProber
	Reporter Reporter
	Recorder Recorder
	DryRun   bool
	Logger   *slog.Logger
}

// Scheduler runs missions through encoder drivers with bounded concurrency.
type Scheduler struct {
	workers  int
	grace    time.Duration
	poll     time.Duration
	killWait time.Duration
	encoder  string
	prober   DurationProber
	reporter Reporter
	recorder Recorder
	dryRun   bool
	logger   *slog.Logger
}

// New returns a Scheduler. Workers below one run missions one at a time.
func New(opts Options) *Scheduler {
	workers := max(opts.Workers, 1)
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	killWait := opts.KillWait
	if killWait <= 0 {
		killWait = DefaultKillWait
	}
	return &Scheduler{
		workers:  workers,
		grace:    opts.GracePeriod,
		poll:     poll,
		killWait: killWait,
		encoder:  opts.Encoder,
		prober:   opts.Prober,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		dryRun:   opts.DryRun,
		logger:   logging.NewComponentLogger(opts.Logger, "scheduler"),
	}
}

// run is the state of one Run call.
type run struct {
	s        *Scheduler
	logger   *slog.Logger
	missions []mission.Mission
	limiter  *semaphore.Weighted

	mu     sync.Mutex
	slots  []*slot
	start  time.Time
	forced atomic.Bool
}

// slot tracks one mission between its goroutine and the poll loop.
type slot struct {
	weight  time.Duration
	driver  *ffmpeg.Driver
	ended   bool
	outcome Outcome
}

// Run executes missions and blocks until they all end. A stop requested
// through token lets running encoders drain and skips missions that have not
// started. A forced stop kills every encoder, waits up to KillWait for the
// killed missions to clean up, and returns with Summary.Abandoned set and an
// error wrapping services.ErrForceStopped. Canceling ctx acts like a stop
// request. Per-mission failures are reported in the Summary, not as an error.
func (s *Scheduler) Run(ctx context.Context, token *interrupt.Token, missions []mission.Mission) (Summary, error) {
	if token == nil {
		token = interrupt.NewToken()
	}
	r := &run{
		s:        s,
		logger:   logging.WithContext(ctx, s.logger),
		missions: missions,
		limiter:  semaphore.NewWeighted(int64(s.workers)),
		slots:    make([]*slot, len(missions)),
		start:    time.Now(),
	}
	for i := range r.slots {
		r.slots[i] = &slot{}
	}

	if s.dryRun {
		return r.pretend(), nil
	}
	if len(missions) == 0 {
		return Summary{}, nil
	}

	stopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-token.Requested():
			stop()
		case <-stopCtx.Done():
		}
	}()

	r.logger.Info("run starting",
		logging.Int("missions", len(missions)),
		logging.Int("workers", s.workers),
	)

	r.probeDurations(stopCtx)

	results := make(chan Outcome, len(missions))
	for i := range missions {
		go func() {
			results <- r.execute(stopCtx, i)
		}()
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	remaining := len(missions)
	for remaining > 0 {
		select {
		case o := <-results:
			remaining--
			r.record(ctx, o)
		case <-ticker.C:
			r.report()
		case <-token.Forced():
			r.forced.Store(true)
			stop()
			r.killAll()
			remaining = r.awaitKilled(ctx, results, remaining)
			summary := r.summary()
			summary.Abandoned = true
			impact := "unfinished missions were killed"
			if remaining > 0 {
				impact = "killed encoders may leave partial outputs"
			}
			logging.WarnWithContext(r.logger, "run abandoned", "run_abandoned",
				logging.Int("missions_pending", remaining),
				logging.String(logging.FieldImpact, impact),
				logging.String(logging.FieldErrorHint, "rerun with --continue"),
			)
			return summary, services.Wrap(services.ErrForceStopped, "scheduler", "run", "stop forced", nil)
		}
	}
	r.report()

	summary := r.summary()
	r.logger.Info("run complete",
		logging.Int("finished", summary.Finished),
		logging.Int("terminated", summary.Terminated),
		logging.Int("canceled", summary.Canceled),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// probeDurations fills mission weights, sharing the worker limit with the
// encoders. It is skipped once a stop was requested.
func (r *run) probeDurations(ctx context.Context) {
	if r.s.prober == nil || ctx.Err() != nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range r.missions {
		g.Go(func() error {
			if err := r.limiter.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer r.limiter.Release(1)
			d, err := r.s.prober.Duration(gctx, m.Source)
			if err != nil {
				if gctx.Err() == nil {
					r.logger.Debug("duration probe failed",
						logging.String(logging.FieldSource, m.Source),
						logging.Error(err),
					)
				}
				return nil
			}
			r.mu.Lock()
			r.slots[i].weight = d
			r.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// pretend logs every mission's command line without running anything.
func (r *run) pretend() Summary {
	summary := Summary{DryRun: true}
	for _, m := range r.missions {
		r.logger.Info("would run",
			logging.String(logging.FieldMission, m.Name()),
			logging.String(logging.FieldPreset, m.PresetID()),
			logging.Strings("command", r.s.commandLine(m)),
		)
		summary.Outcomes = append(summary.Outcomes, Outcome{Mission: m, State: ffmpeg.StateIdle})
	}
	return summary
}

func (r *run) record(ctx context.Context, o Outcome) {
	if r.s.recorder == nil {
		return
	}
	if err := r.s.recorder.RecordOutcome(ctx, o); err != nil {
		logging.WarnWithContext(r.logger, "journal write failed", "journal_write_failed",
			logging.String(logging.FieldMission, o.Mission.Name()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "continue mode may rerun this mission"),
		)
	}
}

func (r *run) report() {
	if r.s.reporter == nil {
		return
	}
	r.s.reporter.Progress(r.progress())
}

// awaitKilled collects outcomes after killAll until every mission ended or
// the kill wait expires. It returns how many missions are still out.
func (r *run) awaitKilled(ctx context.Context, results <-chan Outcome, remaining int) int {
	timer := time.NewTimer(r.s.killWait)
	defer timer.Stop()
	for remaining > 0 {
		select {
		case o := <-results:
			remaining--
			r.record(ctx, o)
		case <-timer.C:
			return remaining
		}
	}
	return remaining
}

// killAll kills every running encoder.
func (r *run) killAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sl := range r.slots {
		if sl.driver != nil && !sl.ended {
			sl.driver.Kill()
		}
	}
}

func (r *run) summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := Summary{Elapsed: time.Since(r.start)}
	for _, sl := range r.slots {
		if !sl.ended {
			continue
		}
		summary.Outcomes = append(summary.Outcomes, sl.outcome)
		switch sl.outcome.State {
		case ffmpeg.StateFinished:
			summary.Finished++
		case ffmpeg.StateTerminated:
			summary.Terminated++
		case ffmpeg.StateCanceled:
			summary.Canceled++
		}
	}
	return summary
}

func (s *Scheduler) commandLine(m mission.Mission) []string {
	return append([]string{s.executable(m)}, m.Arguments()...)
}

// executable prefers the preset's encoder, then the configured one.
func (s *Scheduler) executable(m mission.Mission) string {
	if m.Preset != nil && m.Preset.Executable != "" {
		return m.Preset.Executable
	}
	if s.encoder != "" {
		return s.encoder
	}
	return m.Executable()
}
