package reactor

import "sync"

// EventType names one of the reactor's three lifecycle system events, per
// §3's "EventType ∈ {STARTUP, SHUTDOWN, PERSIST}".
type EventType int

const (
	// EventStartup fires once, during the INIT -> RUNNING transition.
	EventStartup EventType = iota
	// EventShutdown fires once, during the RUNNING -> STOPPING transition.
	EventShutdown
	// EventPersist is available for periodic/checkpoint-style hooks; the
	// core does not fire it itself (no component in §4 schedules it), but
	// application code may call FireSystemEvent(EventPersist) directly.
	EventPersist

	numEventTypes
)

// String returns the Twisted-style lowercase name used by
// AddSystemEventTrigger/FireSystemEvent.
func (t EventType) String() string {
	switch t {
	case EventStartup:
		return "startup"
	case EventShutdown:
		return "shutdown"
	case EventPersist:
		return "persist"
	default:
		return "unknown"
	}
}

// ParseEventType validates a type string per §4.6: "validates ... type ∈
// {"startup","shutdown","persist"}".
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "startup":
		return EventStartup, nil
	case "shutdown":
		return EventShutdown, nil
	case "persist":
		return EventPersist, nil
	default:
		return 0, WrapError(s, ErrInvalidEventType)
	}
}

// EventPhase names one of the three ordered phases a system event runs
// through, per §3's "EventPhase ∈ {BEFORE, DURING, AFTER}".
type EventPhase int

const (
	// PhaseBefore hooks may return a CompletionHandle to suspend the event.
	PhaseBefore EventPhase = iota
	// PhaseDuring hooks run once every BEFORE completion handle has
	// resolved.
	PhaseDuring
	// PhaseAfter hooks run after DURING; completion of AFTER may advance
	// the reactor's state (§4.2).
	PhaseAfter

	numEventPhases
)

// String returns the Twisted-style lowercase name used by
// AddSystemEventTrigger.
func (p EventPhase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseDuring:
		return "during"
	case PhaseAfter:
		return "after"
	default:
		return "unknown"
	}
}

// ParseEventPhase validates a phase string per §4.6: "validates phase ∈
// {"before","during","after"}".
func ParseEventPhase(s string) (EventPhase, error) {
	switch s {
	case "before":
		return PhaseBefore, nil
	case "during":
		return PhaseDuring, nil
	case "after":
		return PhaseAfter, nil
	default:
		return 0, WrapError(s, ErrInvalidEventPhase)
	}
}

// EventRegistry is the fixed 3x3 matrix of [MethodList]s indexed by
// (EventType, EventPhase), per §2/§3. It owns only storage and validation;
// the phase-firing protocol itself (§4.2) lives on [Reactor], since running
// it requires the reactor's defer_list and state machine.
type EventRegistry struct {
	lists [numEventTypes][numEventPhases]MethodList

	mu     sync.Mutex
	nextID MethodID // last id handed out by any cell, so ids are unique registry-wide
}

// newEventRegistry returns a zero-valued, ready-to-use registry: the full
// matrix of MethodLists, each independently lockable.
func newEventRegistry() *EventRegistry {
	return &EventRegistry{}
}

// list returns the MethodList for the given (type, phase) cell.
func (r *EventRegistry) list(t EventType, p EventPhase) *MethodList {
	return &r.lists[t][p]
}

// Add registers a hook at (phase, type) and returns its id. The caller is
// responsible for phase/type validation (Reactor.AddSystemEventTrigger does
// this before calling Add, per §4.6's order of argument checks).
func (r *EventRegistry) Add(p EventPhase, t EventType, fn Callable, args []any, kwargs map[string]any) MethodID {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.list(t, p)
	l.mu.Lock()
	l.nextID = r.nextID
	l.mu.Unlock()
	r.nextID = l.Add(fn, args, kwargs)
	return r.nextID
}

// Remove removes a previously registered hook by id, searching every cell
// of the matrix since the id alone doesn't indicate its (type, phase).
func (r *EventRegistry) Remove(id MethodID) bool {
	for t := EventType(0); t < numEventTypes; t++ {
		for p := EventPhase(0); p < numEventPhases; p++ {
			if r.list(t, p).Remove(id) {
				return true
			}
		}
	}
	return false
}
