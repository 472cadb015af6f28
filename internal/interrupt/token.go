package interrupt

import (
	"sync"
	"sync/atomic"
)

// State is the stage a Token has reached. It only moves forward.
type State int32

const (
	None State = iota
	Requested
	Forced
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Requested:
		return "requested"
	case Forced:
		return "forced"
	default:
		return "unknown"
	}
}

// Token carries a two-stage stop request. A request asks running work to
// finish early; forcing it means callers stop waiting altogether.
type Token struct {
	state     atomic.Int32
	requested chan struct{}
	forced    chan struct{}
	reqOnce   sync.Once
	forceOnce sync.Once
}

// NewToken returns a Token in the None state.
func NewToken() *Token {
	return &Token{
		requested: make(chan struct{}),
		forced:    make(chan struct{}),
	}
}

// Request moves the token to Requested. It reports whether this call changed
// the state.
func (t *Token) Request() bool {
	changed := t.state.CompareAndSwap(int32(None), int32(Requested))
	t.reqOnce.Do(func() { close(t.requested) })
	return changed
}

// Force moves the token to Forced. Forcing implies a request.
func (t *Token) Force() bool {
	t.reqOnce.Do(func() { close(t.requested) })
	changed := t.state.Swap(int32(Forced)) != int32(Forced)
	t.forceOnce.Do(func() { close(t.forced) })
	return changed
}

// Escalate advances the token by one stage and returns the new state.
func (t *Token) Escalate() State {
	if t.Request() {
		return Requested
	}
	t.Force()
	return Forced
}

// State returns the current stage.
func (t *Token) State() State {
	return State(t.state.Load())
}

// IsRequested reports whether a stop was asked for, forced or not.
func (t *Token) IsRequested() bool {
	return t.State() >= Requested
}

// IsForced reports whether the stop was forced.
func (t *Token) IsForced() bool {
	return t.State() == Forced
}

// Requested is closed once a stop is requested.
func (t *Token) Requested() <-chan struct{} { return t.requested }

// Forced is closed once the stop is forced.
func (t *Token) Forced() <-chan struct{} { return t.forced }
