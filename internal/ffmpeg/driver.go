package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediakiller/internal/logging"
	"mediakiller/internal/services"
)

// DefaultGracePeriod is how long an interrupted encoder may take to exit
// before it is killed.
const DefaultGracePeriod = 4 * time.Second

// ErrAlreadyStarted is returned when Execute is called more than once.
var ErrAlreadyStarted = errors.New("driver already started")

// State is the lifecycle position of a Driver.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateFinished
	StateCanceled
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCanceled:
		return "canceled"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s is an end state.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCanceled || s == StateTerminated
}

// EventKind names a lifecycle event.
type EventKind int

const (
	EventStarted EventKind = iota + 1
	EventProgressUpdated
	EventFinished
	EventTerminated
	EventCanceled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgressUpdated:
		return "progress_updated"
	case EventFinished:
		return "finished"
	case EventTerminated:
		return "terminated"
	case EventCanceled:
		return "canceled"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered to the Observer. Current and Total are set for
// progress events; Err is set for Terminated and Canceled.
type Event struct {
	Kind    EventKind
	Process ProcessInfo
	Status  CodingStatus
	Current time.Duration
	Total   time.Duration
	Err     error
}

// Observer receives a driver's events in order: Started, any number of
// ProgressUpdated, then exactly one terminal event. It is called from the
// goroutine running Execute and must not block for long.
type Observer interface {
	HandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) HandleEvent(e Event) { f(e) }

// Options configures a Driver.
type Options struct {
	Executable  string
	GracePeriod time.Duration
	Observer    Observer
	Logger      *slog.Logger
	// Stdin replaces the interactive stdin pipe, for presets reading "pipe:0".
	Stdin io.Reader
}

// Result is the outcome of Execute.
type Result struct {
	State    State
	ExitCode int
	Process  ProcessInfo
	Status   CodingStatus
	Err      error
}

// Driver supervises a single encoder run. A Driver is single-use.
type Driver struct {
	executable string
	grace      time.Duration
	observer   Observer
	logger     *slog.Logger
	stdin      io.Reader

	cancelOnce sync.Once
	cancelCh   chan struct{}
	canceled   atomic.Bool
	killOnce   sync.Once
	killCh     chan struct{}

	mu          sync.Mutex
	state       State
	info        ProcessInfo
	status      CodingStatus
	hasDuration bool

	diag *tailBuffer
}

// NewDriver returns an idle Driver.
func NewDriver(opts Options) *Driver {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		executable = "ffmpeg"
	}
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Driver{
		executable: executable,
		grace:      grace,
		observer:   opts.Observer,
		logger:     logging.NewComponentLogger(opts.Logger, "ffmpeg"),
		stdin:      opts.Stdin,
		cancelCh:   make(chan struct{}),
		killCh:     make(chan struct{}),
		diag:       newTailBuffer(DiagnosticsLimit),
	}
}

// Cancel requests a graceful stop. It is safe to call at any time and more
// than once. A driver canceled before Execute never spawns the encoder.
func (d *Driver) Cancel() {
	d.canceled.Store(true)
	d.cancelOnce.Do(func() { close(d.cancelCh) })
}

// Kill cancels the driver and kills the encoder group without waiting for
// the grace period.
func (d *Driver) Kill() {
	d.Cancel()
	d.killOnce.Do(func() { close(d.killCh) })
}

// Canceled reports whether Cancel was called.
func (d *Driver) Canceled() bool { return d.canceled.Load() }

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsRunning is true from Starting through Running.
func (d *Driver) IsRunning() bool {
	s := d.State()
	return s == StateStarting || s == StateRunning
}

// Process returns the latest process record.
func (d *Driver) Process() ProcessInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Status returns the latest coding status.
func (d *Driver) Status() CodingStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Progress returns the media time reached and the total, zero when unknown.
func (d *Driver) Progress() (current, total time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status.Time, d.info.Total
}

// Diagnostics returns the retained tail of the encoder's output.
func (d *Driver) Diagnostics() string { return d.diag.String() }

// Execute runs the encoder with args and blocks until it exits. The error is
// nil only when the run finished; canceled runs wrap services.ErrCanceled and
// failed runs services.ErrExternalTool. Canceling ctx has the same effect as
// Cancel.
func (d *Driver) Execute(ctx context.Context, args []string) (Result, error) {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return Result{}, ErrAlreadyStarted
	}
	d.state = StateStarting
	d.info = ProcessInfo{Executable: d.executable, Args: append([]string(nil), args...)}
	d.mu.Unlock()

	if d.Canceled() || ctx.Err() != nil {
		d.Cancel()
		return d.finish(StateCanceled, -1, services.Wrap(services.ErrCanceled, "ffmpeg", "start", "canceled before start", nil))
	}

	cmd := exec.Command(d.executable, args...)
	configureProcess(cmd)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return d.finish(StateTerminated, -1, services.Wrap(services.ErrExternalTool, "ffmpeg", "start", "stderr pipe", err))
	}
	var stdin io.WriteCloser
	if d.stdin != nil {
		cmd.Stdin = d.stdin
	} else if stdin, err = cmd.StdinPipe(); err != nil {
		return d.finish(StateTerminated, -1, services.Wrap(services.ErrExternalTool, "ffmpeg", "start", "stdin pipe", err))
	}

	if err := cmd.Start(); err != nil {
		return d.finish(StateTerminated, -1, services.Wrap(services.ErrExternalTool, "ffmpeg", "start", d.executable, err))
	}

	d.mu.Lock()
	d.state = StateRunning
	d.info.PID = cmd.Process.Pid
	d.info.StartedAt = time.Now()
	info := d.info
	d.mu.Unlock()

	d.logger.Debug("encoder started",
		logging.String("executable", d.executable),
		logging.Int("pid", info.PID),
		logging.Strings("args", args),
	)
	d.emit(Event{Kind: EventStarted, Process: info})

	exited := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		d.watchCancel(ctx, cmd, stdin, exited)
	}()

	d.readDiagnostics(stderr)
	waitErr := cmd.Wait()
	close(exited)
	watcher.Wait()
	if stdin != nil {
		_ = stdin.Close()
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	switch {
	case d.Canceled():
		return d.finish(StateCanceled, exitCode, services.Wrap(services.ErrCanceled, "ffmpeg", "run", "canceled", nil))
	case waitErr == nil:
		return d.finish(StateFinished, exitCode, nil)
	default:
		return d.finish(StateTerminated, exitCode,
			services.Wrap(services.ErrExternalTool, "ffmpeg", "run", fmt.Sprintf("exit status %d", exitCode), waitErr))
	}
}

// watchCancel interrupts the encoder once a cancel arrives and kills it when
// it outlives the grace period.
func (d *Driver) watchCancel(ctx context.Context, cmd *exec.Cmd, stdin io.Writer, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	case <-d.cancelCh:
	case <-ctx.Done():
		d.Cancel()
	}

	select {
	case <-d.killCh:
		d.kill(cmd)
		return
	default:
	}

	d.logger.Info("interrupting encoder",
		logging.Int("pid", cmd.Process.Pid),
		logging.Duration("grace", d.grace),
	)
	if err := interruptProcess(cmd, stdin); err != nil {
		d.logger.Warn("encoder interrupt failed", logging.Error(err))
	}

	timer := time.NewTimer(d.grace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-d.killCh:
		d.kill(cmd)
	case <-timer.C:
		logging.WarnWithContext(d.logger, "encoder ignored interrupt; killing", "encoder_killed",
			logging.Int("pid", cmd.Process.Pid),
			logging.String(logging.FieldImpact, "partial output will be removed"),
		)
		d.kill(cmd)
	}
}

func (d *Driver) kill(cmd *exec.Cmd) {
	if err := killProcess(cmd); err != nil {
		d.logger.Warn("encoder kill failed", logging.Error(err))
	}
}

// readDiagnostics consumes the encoder's stderr until EOF.
func (d *Driver) readDiagnostics(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		line := strings.ToValidUTF8(scanner.Text(), "\uFFFD")
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.handleLine(line)
	}
	if err := scanner.Err(); err != nil {
		d.logger.Debug("encoder output unreadable; draining", logging.Error(err))
		_, _ = io.Copy(io.Discard, r)
	}
}

func (d *Driver) handleLine(line string) {
	d.diag.WriteLine(line)

	d.mu.Lock()
	if !d.hasDuration {
		if total, ok := ParseDuration(line); ok {
			d.hasDuration = true
			d.info = d.info.withTotal(total)
		}
	}
	status, ok := ParseStatusLine(line, time.Now())
	if ok {
		d.status = status
	}
	info := d.info
	d.mu.Unlock()

	if ok {
		d.emit(Event{
			Kind:    EventProgressUpdated,
			Process: info,
			Status:  status,
			Current: status.Time,
			Total:   info.Total,
		})
	}
}

func (d *Driver) finish(state State, exitCode int, err error) (Result, error) {
	d.mu.Lock()
	d.state = state
	if !d.info.StartedAt.IsZero() {
		d.info = d.info.withEnd(time.Now())
	}
	result := Result{State: state, ExitCode: exitCode, Process: d.info, Status: d.status, Err: err}
	d.mu.Unlock()

	kind := EventFinished
	switch state {
	case StateCanceled:
		kind = EventCanceled
	case StateTerminated:
		kind = EventTerminated
	}
	d.emit(Event{Kind: kind, Process: result.Process, Status: result.Status, Err: err})
	return result, err
}

func (d *Driver) emit(e Event) {
	if d.observer != nil {
		d.observer.HandleEvent(e)
	}
}

// scanStatusLines splits on '\n' and '\r' because ffmpeg redraws its status
// line with carriage returns.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
