package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/interrupt"
	"mediakiller/internal/mission"
	"mediakiller/internal/preset"
	"mediakiller/internal/scheduler"
	"mediakiller/internal/services"
	"mediakiller/internal/testsupport"
)

const writeOutput = `
for last; do :; done
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 100 kb/s" >&2
echo "frame=1 fps=1 q=1.0 size=1kB time=00:00:05.00 bitrate=1.6kbits/s speed=1x" >&2
echo data > "$last"
`

type reporter struct {
	mu       sync.Mutex
	progress []scheduler.Progress
	events   map[string][]ffmpeg.EventKind
	started  chan string
}

func newReporter() *reporter {
	return &reporter{events: map[string][]ffmpeg.EventKind{}, started: make(chan string, 16)}
}

func (r *reporter) Progress(p scheduler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *reporter) MissionEvent(m mission.Mission, e ffmpeg.Event) {
	r.mu.Lock()
	r.events[m.Name()] = append(r.events[m.Name()], e.Kind)
	r.mu.Unlock()
	if e.Kind == ffmpeg.EventStarted {
		r.started <- m.Name()
	}
}

func (r *reporter) last() scheduler.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.progress) == 0 {
		return scheduler.Progress{}
	}
	return r.progress[len(r.progress)-1]
}

type fixedProber time.Duration

func (p fixedProber) Duration(context.Context, string) (time.Duration, error) {
	return time.Duration(p), nil
}

type env struct {
	dir    string
	preset *preset.Preset
}

func newEnv(t *testing.T, script string) env {
	t.Helper()
	dir := t.TempDir()
	bin := testsupport.WriteStubBinary(t, filepath.Join(dir, "bin"), "ffmpeg", script)
	return env{dir: dir, preset: &preset.Preset{ID: "stub", Executable: bin}}
}

func (e env) mission(t *testing.T, name string, overwrite bool) mission.Mission {
	t.Helper()
	src := testsupport.WriteText(t, filepath.Join(e.dir, "src", name+".mov"), "source")
	out := filepath.Join(e.dir, "out", name+".mp4")
	return mission.Mission{
		Preset:         e.preset,
		Source:         src,
		StandardTarget: out,
		Overwrite:      overwrite,
		Inputs:         []mission.ArgumentGroup{mission.NewArgumentGroup(src)},
		Outputs:        []mission.ArgumentGroup{mission.NewArgumentGroup(out)},
	}
}

func newScheduler(rep scheduler.Reporter, opts ...func(*scheduler.Options)) *scheduler.Scheduler {
	o := scheduler.Options{
		Workers:      2,
		GracePeriod:  time.Second,
		PollInterval: 20 * time.Millisecond,
		Reporter:     rep,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return scheduler.New(o)
}

func TestRunFinishesEveryMission(t *testing.T) {
	e := newEnv(t, writeOutput)
	missions := []mission.Mission{e.mission(t, "a", true), e.mission(t, "b", true), e.mission(t, "c", true)}
	rep := newReporter()

	var mu sync.Mutex
	var recorded []string
	s := newScheduler(rep, func(o *scheduler.Options) {
		o.Prober = fixedProber(10 * time.Second)
		o.Recorder = scheduler.RecorderFunc(func(_ context.Context, out scheduler.Outcome) error {
			mu.Lock()
			defer mu.Unlock()
			recorded = append(recorded, out.Mission.Name())
			return nil
		})
	})

	summary, err := s.Run(context.Background(), interrupt.NewToken(), missions)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Finished != 3 || summary.Terminated != 0 || summary.Canceled != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ExitCode() != 0 {
		t.Fatalf("exit code = %d", summary.ExitCode())
	}
	for _, m := range missions {
		if !testsupport.Exists(m.OutputFiles()[0]) {
			t.Fatalf("output %s missing", m.OutputFiles()[0])
		}
		kinds := rep.events[m.Name()]
		if len(kinds) < 2 || kinds[0] != ffmpeg.EventStarted || kinds[len(kinds)-1] != ffmpeg.EventFinished {
			t.Fatalf("events for %s = %v", m.Name(), kinds)
		}
	}
	if len(recorded) != 3 {
		t.Fatalf("recorded %d outcomes", len(recorded))
	}
	final := rep.last()
	if final.Total != 30*time.Second || final.Completed != final.Total || final.Percent() != 100 {
		t.Fatalf("final progress %+v", final)
	}
}

func TestRunRemovesOutputsOfTerminatedMissions(t *testing.T) {
	e := newEnv(t, `
for last; do :; done
echo partial > "$last"
echo "Conversion failed!" >&2
exit 1
`)
	m := e.mission(t, "broken", true)

	summary, err := newScheduler(nil).Run(context.Background(), nil, []mission.Mission{m})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Terminated != 1 || summary.ExitCode() != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	out := summary.Outcomes[0]
	if !errors.Is(out.Err, services.ErrExternalTool) || out.ExitCode != 1 {
		t.Fatalf("outcome err=%v exit=%d", out.Err, out.ExitCode)
	}
	if testsupport.Exists(m.OutputFiles()[0]) {
		t.Fatal("partial output was not removed")
	}
	if len(out.Removed) != 1 {
		t.Fatalf("removed = %v", out.Removed)
	}
	if !testsupport.Exists(m.Source) {
		t.Fatal("source must never be removed")
	}
	if out.Diagnostics == "" {
		t.Fatal("expected diagnostics for a terminated mission")
	}
}

func TestCleanupLeavesInputsInPlace(t *testing.T) {
	e := newEnv(t, `exit 1`)
	m := e.mission(t, "inplace", true)
	extra := filepath.Join(e.dir, "side.txt")
	testsupport.WriteText(t, extra, "keep")
	m.Inputs = append(m.Inputs, mission.NewArgumentGroup(extra))
	m.Outputs = append(m.Outputs, mission.NewArgumentGroup(filepath.Join(e.dir, "other.mp4")))

	summary, _ := newScheduler(nil).Run(context.Background(), nil, []mission.Mission{m})
	if summary.Terminated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !testsupport.Exists(extra) {
		t.Fatal("input file was removed")
	}
}

func TestPreflightRejectsMissions(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	e := newEnv(t, `touch "`+marker+`"`)

	conflict := e.mission(t, "conflict", true)
	conflict.Outputs = []mission.ArgumentGroup{mission.NewArgumentGroup(conflict.Source)}

	existing := e.mission(t, "existing", false)
	testsupport.WriteText(t, existing.OutputFiles()[0], "previous result")

	missing := e.mission(t, "missing", true)
	missing.Preset = &preset.Preset{ID: "gone", Executable: filepath.Join(e.dir, "no-such-ffmpeg")}

	summary, err := newScheduler(nil).Run(context.Background(), nil, []mission.Mission{conflict, existing, missing})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Canceled != 3 || summary.ExitCode() != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	want := map[string]error{
		"conflict.mov": services.ErrConflict,
		"existing.mov": services.ErrConflict,
		"missing.mov":  services.ErrEnvironment,
	}
	for _, o := range summary.Outcomes {
		if !errors.Is(o.Err, want[o.Mission.Name()]) {
			t.Fatalf("%s: err = %v", o.Mission.Name(), o.Err)
		}
	}
	if testsupport.Exists(marker) {
		t.Fatal("encoder ran for a rejected mission")
	}
	if data, _ := os.ReadFile(existing.OutputFiles()[0]); string(data) != "previous result" {
		t.Fatalf("existing output modified: %q", data)
	}
	if !testsupport.Exists(conflict.Source) {
		t.Fatal("conflicting source removed")
	}
}

func TestRunCreatesOutputDirectories(t *testing.T) {
	e := newEnv(t, writeOutput)
	m := e.mission(t, "nested", true)
	deep := filepath.Join(e.dir, "a", "b", "c", "nested.mp4")
	m.Outputs = []mission.ArgumentGroup{mission.NewArgumentGroup(deep)}

	summary, err := newScheduler(nil).Run(context.Background(), nil, []mission.Mission{m})
	if err != nil || summary.Finished != 1 {
		t.Fatalf("summary %+v err=%v", summary, err)
	}
	if !testsupport.Exists(deep) {
		t.Fatal("nested output missing")
	}
}

func TestRequestedStopDrainsRunningMissions(t *testing.T) {
	e := newEnv(t, `
trap 'exit 255' TERM
while :; do sleep 0.05; done
`)
	missions := []mission.Mission{e.mission(t, "a", true), e.mission(t, "b", true), e.mission(t, "c", true)}
	rep := newReporter()
	token := interrupt.NewToken()
	go func() {
		<-rep.started
		token.Request()
	}()

	s := newScheduler(rep, func(o *scheduler.Options) { o.Workers = 1 })
	summary, err := s.Run(context.Background(), token, missions)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Abandoned || summary.Canceled != 3 || summary.Finished != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	started := 0
	for _, o := range summary.Outcomes {
		if !o.Process.StartedAt.IsZero() {
			started++
		}
		if !errors.Is(o.Err, services.ErrCanceled) {
			t.Fatalf("%s: err = %v", o.Mission.Name(), o.Err)
		}
	}
	if started != 1 {
		t.Fatalf("expected only the first mission to start, %d started", started)
	}
}

func TestForcedStopAbandonsRun(t *testing.T) {
	e := newEnv(t, `
for last; do :; done
echo partial > "$last"
trap '' TERM
while :; do sleep 0.05; done
`)
	rep := newReporter()
	token := interrupt.NewToken()
	go func() {
		<-rep.started
		token.Request()
		time.Sleep(100 * time.Millisecond)
		token.Force()
	}()

	s := newScheduler(rep, func(o *scheduler.Options) { o.GracePeriod = time.Minute })
	start := time.Now()
	summary, err := s.Run(context.Background(), token, []mission.Mission{e.mission(t, "stubborn", true)})
	if !errors.Is(err, services.ErrForceStopped) {
		t.Fatalf("expected force stop, got %v", err)
	}
	if !summary.Abandoned || summary.ExitCode() != 130 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if took := time.Since(start); took > 10*time.Second {
		t.Fatalf("abandon waited %v", took)
	}
	if len(summary.Outcomes) != 1 {
		t.Fatalf("killed mission not collected: %+v", summary)
	}
	if out := summary.Outcomes[0].Mission.StandardTarget; testsupport.Exists(out) {
		t.Fatalf("partial output %s left behind", out)
	}
}

func TestProgressIncludesRunningMission(t *testing.T) {
	e := newEnv(t, `
trap 'exit 255' TERM
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 100 kb/s" >&2
echo "frame=1 fps=1 q=1.0 size=1kB time=00:00:05.00 bitrate=1.6kbits/s speed=1x" >&2
while :; do sleep 0.05; done
`)
	missions := []mission.Mission{e.mission(t, "a", true), e.mission(t, "b", true)}
	rep := newReporter()
	token := interrupt.NewToken()
	seen := make(chan scheduler.Progress, 1)
	go func() {
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if p := rep.last(); p.Running == 1 && p.Completed > 0 {
				seen <- p
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		token.Request()
	}()

	s := newScheduler(rep, func(o *scheduler.Options) {
		o.Workers = 1
		o.Prober = fixedProber(10 * time.Second)
	})
	if _, err := s.Run(context.Background(), token, missions); err != nil {
		t.Fatalf("run: %v", err)
	}
	var p scheduler.Progress
	select {
	case p = <-seen:
	default:
		t.Fatal("no progress reported while the first mission was running")
	}
	if p.Missions != 2 || p.Ended() != 0 {
		t.Fatalf("unexpected counts %+v", p)
	}
	if p.Completed != 5*time.Second || p.Total != 20*time.Second {
		t.Fatalf("completed/total = %v/%v, want 5s/20s", p.Completed, p.Total)
	}
	if p.Percent() != 25 {
		t.Fatalf("percent = %v", p.Percent())
	}
}

func TestDryRunSpawnsNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	e := newEnv(t, `touch "`+marker+`"`)
	missions := []mission.Mission{e.mission(t, "a", true), e.mission(t, "b", true)}

	s := newScheduler(nil, func(o *scheduler.Options) { o.DryRun = true })
	summary, err := s.Run(context.Background(), nil, missions)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.DryRun || len(summary.Outcomes) != 2 || summary.ExitCode() != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if testsupport.Exists(marker) {
		t.Fatal("dry run spawned the encoder")
	}
}

func TestProgressPercent(t *testing.T) {
	p := scheduler.Progress{Missions: 2, Completed: 15 * time.Second, Total: 20 * time.Second, Elapsed: 30 * time.Second}
	if p.Percent() != 75 {
		t.Fatalf("percent = %v", p.Percent())
	}
	if p.Remaining() != 10*time.Second {
		t.Fatalf("remaining = %v", p.Remaining())
	}
	empty := scheduler.Progress{Missions: 4, Finished: 1, Canceled: 1}
	if empty.Percent() != 50 {
		t.Fatalf("percent without totals = %v", empty.Percent())
	}
}
