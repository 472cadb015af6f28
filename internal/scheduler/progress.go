package scheduler

import (
	"time"

	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/mission"
)

// Progress is the aggregate state of a run.
type Progress struct {
	Missions   int
	Running    int
	Finished   int
	Terminated int
	Canceled   int
	// Completed and Total are media time across all missions. Missions
	// of unknown length weigh one second.
	Completed time.Duration
	Total     time.Duration
	Elapsed   time.Duration
}

// Ended counts missions that reached a terminal state.
func (p Progress) Ended() int { return p.Finished + p.Terminated + p.Canceled }

// Percent returns completion in [0, 100].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		if p.Missions == 0 {
			return 100
		}
		return 100 * float64(p.Ended()) / float64(p.Missions)
	}
	return min(100, 100*float64(p.Completed)/float64(p.Total))
}

// Remaining estimates the time left from the elapsed rate, zero when no
// estimate is possible yet.
func (p Progress) Remaining() time.Duration {
	if p.Completed <= 0 || p.Total <= p.Completed {
		return 0
	}
	rate := float64(p.Elapsed) / float64(p.Completed)
	return time.Duration(rate * float64(p.Total-p.Completed))
}

// Outcome is how one mission ended.
type Outcome struct {
	Mission  mission.Mission
	State    ffmpeg.State
	ExitCode int
	Err      error
	Process  ffmpeg.ProcessInfo
	Status   ffmpeg.CodingStatus
	// Diagnostics holds the encoder's output tail for terminated missions.
	Diagnostics string
	// Removed lists partial outputs deleted after a failure.
	Removed []string
}

// Summary is the result of Run.
type Summary struct {
	Outcomes   []Outcome
	Finished   int
	Terminated int
	Canceled   int
	Abandoned  bool
	DryRun     bool
	Elapsed    time.Duration
}

// ExitCode maps the summary to the process exit status: 130 when the run
// was abandoned, 1 when any mission terminated, 0 otherwise.
func (s Summary) ExitCode() int {
	switch {
	case s.Abandoned:
		return 130
	case s.Terminated > 0:
		return 1
	default:
		return 0
	}
}

func (r *run) progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := Progress{Missions: len(r.slots), Elapsed: time.Since(r.start)}
	for _, sl := range r.slots {
		weight := sl.weight
		var current time.Duration
		if sl.driver != nil {
			var total time.Duration
			current, total = sl.driver.Progress()
			if weight <= 0 {
				weight = total
			}
		}
		if weight <= 0 {
			weight = unknownWeight
		}
		p.Total += weight

		if sl.ended {
			p.Completed += weight
			switch sl.outcome.State {
			case ffmpeg.StateFinished:
				p.Finished++
			case ffmpeg.StateTerminated:
				p.Terminated++
			default:
				p.Canceled++
			}
			continue
		}
		if sl.driver != nil && sl.driver.IsRunning() {
			p.Running++
			p.Completed += min(max(current, 0), weight)
		}
	}
	return p
}
