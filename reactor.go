package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// runningReactor is the process-unique "currently running reactor" slot
// from §3/§4.1: a step records itself here for its duration, and any
// attempt to step while it (or another reactor) already holds the slot
// fails immediately. This mirrors the original C reactor's single
// process-wide `running_reactor` global rather than a per-instance guard,
// since the invariant is process-scoped, not instance-scoped.
var runningReactor atomic.Pointer[Reactor]

// Reactor is the orchestrator described in §2: it owns the EventRegistry,
// TransportTable (with its descriptor cache), TimerWheel, and
// SignalBridge, implements the INIT->RUNNING->STOPPING->DONE state
// machine, and drives the single-threaded cooperative loop.
//
// A Reactor is not safe for concurrent stepping (Run/Iterate) — that is
// the entire point of the re-entrancy guard — but registration methods
// (AddSystemEventTrigger, CallLater, AddTransport, ...) may be called
// from within a hook/timer/transport callback running on the step, since
// those are the only contexts a single-threaded cooperative loop ever
// calls user code from.
type Reactor struct {
	sm stateMachine

	events      *EventRegistry
	transports  *TransportTable
	timers      *TimerWheel
	signals     *SignalBridge
	defers      *deferSet
	currentTag  EventType
	pendingStop bool // stop() observed while STARTUP's BEFORE is still deferred; see §9.

	clock          func() time.Time
	logger         Logger
	rate           *hookErrorLimiter
	installSignals bool

	mu sync.Mutex // guards pendingStop and the defer-resolution/finish sequence
}

// NewReactor constructs a Reactor in the INIT state. No signal handlers
// are installed and no system event fires until the first Run/Iterate
// call, per §4.1.
func NewReactor(opts ...ReactorOption) (*Reactor, error) {
	cfg := resolveReactorOptions(opts)
	r := &Reactor{
		events:         newEventRegistry(),
		transports:     newTransportTable(),
		defers:         newDeferSet(),
		signals:        newSignalBridge(),
		clock:          cfg.clock,
		logger:         cfg.logger,
		rate:           cfg.hookRateLimiter,
		installSignals: cfg.installSignals,
	}
	r.timers = newTimerWheel(r.clock)
	return r, nil
}

// State returns the reactor's current lifecycle state.
func (r *Reactor) State() State {
	return r.sm.load()
}

// AddSystemEventTrigger registers fn to run during the given (phase, type)
// system event, per §4.6. phase and type are validated per §4.6's order:
// phase first, then type.
func (r *Reactor) AddSystemEventTrigger(phase string, typ string, fn Callable, args []any, kwargs map[string]any) (MethodID, error) {
	p, err := ParseEventPhase(phase)
	if err != nil {
		return 0, err
	}
	t, err := ParseEventType(typ)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, ErrNilCallable
	}
	return r.events.Add(p, t, fn, args, kwargs), nil
}

// RemoveSystemEventTrigger removes a previously registered hook by id. Per
// §6's note that this entry point is declared but unimplemented in the
// source, this reactor provides it in full: it is a thin search-and-remove
// over the EventRegistry's matrix.
func (r *Reactor) RemoveSystemEventTrigger(id MethodID) error {
	if !r.events.Remove(id) {
		return WrapError("RemoveSystemEventTrigger", ErrUnknownMethodID)
	}
	return nil
}

// CallLater schedules fn to run after delay, delegating to the TimerWheel
// per §4.6.
func (r *Reactor) CallLater(delay time.Duration, fn Callable, args []any, kwargs map[string]any) (MethodID, error) {
	if fn == nil {
		return 0, ErrNilCallable
	}
	return r.timers.Schedule(delay, fn, args, kwargs), nil
}

// CancelCallLater cancels a previously scheduled timer by id, delegating
// to the TimerWheel per §4.6. Like RemoveSystemEventTrigger, this fills in
// an entry point the original source declared without implementing.
func (r *Reactor) CancelCallLater(id MethodID) error {
	if !r.timers.Cancel(id) {
		return WrapError("CancelCallLater", ErrUnknownMethodID)
	}
	return nil
}

// AddTransport appends transport to the TransportTable and marks the
// descriptor cache stale, per §6. Ownership of the transport transfers to
// the reactor: application code must not continue mutating its state
// outside of the read/write hooks the reactor itself calls.
func (r *Reactor) AddTransport(t Transport) {
	r.transports.Add(t)
}

// Resolve is an external collaborator entry point per §6: name resolution
// is explicitly out of scope for the core reactor (§1), so this always
// fails with ErrResolveNotImplemented rather than silently no-op-ing.
func (r *Reactor) Resolve(string) (string, error) {
	return "", ErrResolveNotImplemented
}

// CallFromThread is an external collaborator entry point per §6:
// cross-thread scheduling is explicitly out of scope for the core reactor
// (§1), since the loop is strictly single-threaded cooperative.
func (r *Reactor) CallFromThread(Callable, []any, map[string]any) error {
	return ErrCallFromThreadNotImplemented
}

// Crash immediately forces the reactor to DONE without running SHUTDOWN's
// phase protocol — a non-graceful stop, distinct from Stop. There is no
// equivalent "crash" implementation in the original source (§6 lists it
// among the unimplemented entry points); this is the one sanctioned
// interpretation: skip the event machinery entirely and terminate.
func (r *Reactor) Crash() {
	for {
		s := r.sm.load()
		if s == StateDone {
			return
		}
		if r.sm.v.CompareAndSwap(uint32(s), uint32(StateDone)) {
			return
		}
	}
}

// Stop initiates shutdown, per §4.1's RUNNING -> STOPPING transition. If
// called while STARTUP's BEFORE phase is still awaiting completion
// handles (the §9 open question), the stop is recorded and applied as
// soon as that phase chain finishes resolving, rather than interleaving
// SHUTDOWN into the middle of STARTUP's phase chain.
func (r *Reactor) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.defers.empty() {
		r.pendingStop = true
		return
	}
	r.initiateShutdownLocked()
}

// initiateShutdownLocked transitions RUNNING -> STOPPING and fires
// SHUTDOWN. Callers must hold r.mu.
func (r *Reactor) initiateShutdownLocked() {
	if !r.sm.advance(StateRunning, StateStopping) {
		return
	}
	r.mu.Unlock()
	r.fireSystemEvent(EventShutdown)
	r.mu.Lock()
}

// Run loops invoking Iterate with an unbounded timeout until the reactor
// reaches DONE, per §4.1's "run() loops invoking a single step with
// unbounded timeout until state is DONE."
func (r *Reactor) Run() error {
	for {
		if err := r.Iterate(-1); err != nil {
			return err
		}
		if r.sm.isDone() {
			return nil
		}
	}
}

// Iterate performs exactly one step, per §4.1/§4.4. delay is the caller's
// upper time bound: 0 means non-blocking, negative means wait for the
// next timer deadline only (with no timer pending, until a registered
// descriptor is ready; with neither a timer nor a transport, the step does
// not block), positive is an explicit upper bound in addition to any
// sooner timer deadline.
func (r *Reactor) Iterate(delay time.Duration) error {
	if !runningReactor.CompareAndSwap(nil, r) {
		return ErrReactorAlreadyRunning
	}
	defer runningReactor.Store(nil)

	if r.sm.load() == StateDone {
		return ErrReactorDone
	}

	if r.sm.load() == StateInit {
		r.fireSystemEvent(EventStartup)
		if r.installSignals {
			r.signals.Clear()
			r.signals.Install()
		}
		r.sm.advance(StateInit, StateRunning)
	}

	sleep := r.computeSleepDelay(delay)

	if r.transports.Stale() {
		r.transports.Rebuild(r.evictTransport)
	}

	liveTransports, slots := r.transports.snapshot()

	results, err := poll(slots, sleep)
	if err != nil {
		if err == errInterrupted {
			// proceed straight to timer/signal handling, per §4.4 step 4.
		} else {
			return WrapError("Iterate", err)
		}
	} else {
		r.dispatchReadiness(liveTransports, results)
	}

	now := r.clock()
	r.timers.RunDue(now, func(id MethodID, recovered any) {
		r.reportSwallowed(id, "timer callback panic", recovered)
	})

	if r.signals.Tripped() && r.sm.load() == StateRunning {
		r.Stop()
	}

	return nil
}

// computeSleepDelay implements §4.4 step 1's precedence rules.
func (r *Reactor) computeSleepDelay(delay time.Duration) time.Duration {
	methodDelay := r.timers.NextDelay()
	switch {
	case methodDelay < 0:
		return delay
	case delay >= 0:
		if methodDelay < delay {
			return methodDelay
		}
		return delay
	default:
		return methodDelay
	}
}

// dispatchReadiness walks transports and poll results in lockstep, per
// §4.4 step 5.
func (r *Reactor) dispatchReadiness(transports []Transport, results []pollEvents) {
	for i, ev := range results {
		if ev == 0 {
			continue
		}
		t := transports[i]

		if ev&eventReadable != 0 {
			if rd, ok := t.(Readable); ok {
				r.invokeTransportHook(t, "read", rd.DoRead)
			}
		}
		if ev&eventWritable != 0 {
			if wr, ok := t.(Writable); ok {
				r.invokeTransportHook(t, "write", wr.DoWrite)
			}
		}
		if ev&(eventError|eventHangup) != 0 {
			t.SetState(TransportClosed)
			r.transports.MarkStale()
		}
	}
}

// invokeTransportHook calls a transport's read/write hook, recovering and
// reporting any panic per §7's "User-callback exception" policy, without
// marking the transport CLOSED itself — a hook that wants to close its
// transport calls SetState(TransportClosed) directly, per §4.4's closing
// note.
func (r *Reactor) invokeTransportHook(t Transport, kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.reportSwallowed(t.Descriptor(), kind+" hook panic", rec)
		}
	}()
	fn()
}

// evictTransport is the Rebuild onClose callback: it invokes the
// transport's Closable hook, guarded the same way as any other user
// callback.
func (r *Reactor) evictTransport(t Transport) {
	c, ok := t.(Closable)
	if !ok {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.reportSwallowed(t.Descriptor(), "close hook panic", rec)
		}
	}()
	c.Close()
}

// reportSwallowed logs a caught-and-swallowed user-callback fault, rate
// limited per category so a hook failing on every tick can't flood the
// log (§7's policy plus the rate-limiting note in the error-handling
// design).
func (r *Reactor) reportSwallowed(category any, what string, recovered any) {
	if !r.rate.allow(category) {
		return
	}
	r.logger.Errorf(panicToError(recovered), "reactor: %s", what)
}

func panicToError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	return WrapError(fmt.Sprintf("%v", recovered), errNonErrorPanic)
}

// FireSystemEvent runs the three-phase protocol for an event, per §4.2.
// Application code may call this directly for EventPersist (the core
// never fires it itself); EventStartup and EventShutdown are normally
// fired only from within Iterate's state transitions.
func (r *Reactor) FireSystemEvent(typ EventType) {
	r.fireSystemEvent(typ)
}

// fireSystemEvent is the phase-protocol implementation described in §4.2:
// BEFORE hooks run in registration order; any BEFORE hook returning a
// [CompletionHandle] suspends DURING/AFTER until every such handle
// resolves and the defer set drains. If no hook deferred, DURING and
// AFTER run immediately, synchronously.
func (r *Reactor) fireSystemEvent(typ EventType) {
	r.mu.Lock()
	r.currentTag = typ
	r.mu.Unlock()

	before := r.events.list(typ, PhaseBefore).Snapshot()
	deferred := false

	for _, m := range before {
		result := r.invokeHookGuarded(m)
		handle, ok := result.(CompletionHandle)
		if !ok || handle == nil {
			continue
		}
		deferred = true
		identity := handle.Identity()
		r.mu.Lock()
		r.defers.add(identity)
		r.mu.Unlock()

		eventTag := typ
		handle.OnResolve(func() {
			r.resolveCompletion(identity, eventTag)
		})
	}

	if !deferred {
		r.runDuringAndAfter(typ)
	}
}

// resolveCompletion is the removal callback attached to every outstanding
// completion handle: it removes the handle's identity from defer_list
// and, if that drains the set to empty, runs DURING/AFTER for the event
// that was waiting on it (§4.2's "finish" sequence), and applies any
// Stop() that arrived while the event was suspended (§9).
func (r *Reactor) resolveCompletion(identity any, typ EventType) {
	r.mu.Lock()
	nowEmpty := r.defers.remove(identity)
	r.mu.Unlock()
	if !nowEmpty {
		return
	}

	r.runDuringAndAfter(typ)

	r.mu.Lock()
	pending := r.pendingStop
	r.pendingStop = false
	if pending {
		r.initiateShutdownLocked()
	}
	r.mu.Unlock()
}

// runDuringAndAfter runs DURING then AFTER for typ, synchronously, and —
// on completion of AFTER — advances STOPPING -> DONE if that's where the
// event's AFTER phase leaves the reactor, per §4.2's final paragraph.
func (r *Reactor) runDuringAndAfter(typ EventType) {
	for _, m := range r.events.list(typ, PhaseDuring).Snapshot() {
		r.invokeHookGuarded(m)
	}
	for _, m := range r.events.list(typ, PhaseAfter).Snapshot() {
		r.invokeHookGuarded(m)
	}

	if typ == EventShutdown && r.sm.load() == StateStopping {
		r.sm.advance(StateStopping, StateDone)
		r.signals.Stop()
	}
}

// invokeHookGuarded invokes a system-event hook, recovering and reporting
// any panic per §4.2's "Hook exceptions are caught, reported ... and do
// not abort the phase or the event," and returns the hook's result (used
// by the BEFORE phase to detect a returned CompletionHandle).
func (r *Reactor) invokeHookGuarded(m Method) (result any) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			r.reportSwallowed(m.ID, "system event hook panic", rec)
		}
	}()
	return m.invoke()
}
