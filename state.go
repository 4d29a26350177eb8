package reactor

import "sync/atomic"

// State represents the current position of a [Reactor] in its lifecycle.
//
// State Machine:
//
//	INIT -> RUNNING -> STOPPING -> DONE
//
// Unlike the teacher's [eventloop.LoopState] (which cycles between Running
// and Sleeping and allows re-entry), a reactor's state forms a strict DAG
// per §3: no backward transitions, and DONE is terminal. There is no
// Sleeping state in the model — it's folded into the poll step itself
// (§4.4), since the loop is cooperative rather than goroutine-driven.
type State uint32

const (
	// StateInit indicates the reactor has been constructed but Run/Iterate
	// has never been called.
	StateInit State = iota
	// StateRunning indicates the reactor has fired STARTUP and is actively
	// stepping.
	StateRunning
	// StateStopping indicates SHUTDOWN has been fired but its AFTER phase
	// has not yet completed.
	StateStopping
	// StateDone is terminal: the reactor will not be restarted.
	StateDone
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// stateMachine is an atomic holder for [State], enforcing the strict
// forward-only DAG described in §3: INIT -> RUNNING -> STOPPING -> DONE.
type stateMachine struct {
	v atomic.Uint32
}

// load returns the current state.
func (s *stateMachine) load() State {
	return State(s.v.Load())
}

// advance attempts to move the state machine strictly one step forward,
// from "from" to "from+1". It refuses any transition that isn't adjacent
// and forward, and any transition out of the terminal DONE state.
func (s *stateMachine) advance(from, to State) bool {
	if to != from+1 || from >= StateDone {
		return false
	}
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// isDone reports whether the state machine has reached DONE.
func (s *stateMachine) isDone() bool {
	return s.load() == StateDone
}
