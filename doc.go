// Package reactor provides a single-threaded, event-driven I/O reactor: a
// cooperative scheduling loop that multiplexes readiness notifications on
// file descriptors, dispatches timed callbacks, and coordinates a structured
// startup/shutdown lifecycle.
//
// # Architecture
//
// A [Reactor] owns four collaborators: an [EventRegistry] of system-event
// hooks (STARTUP, SHUTDOWN, PERSIST, each with BEFORE/DURING/AFTER phases), a
// [TransportTable] of registered I/O endpoints backed by a lazily rebuilt
// poll(2) descriptor cache, a [TimerWheel] of deadline-ordered callbacks, and
// a [SignalBridge] latch set by SIGINT/SIGTERM handlers.
//
// Application code registers hooks ([Reactor.AddSystemEventTrigger]),
// timers ([Reactor.CallLater]), and transports ([Reactor.AddTransport]),
// then calls [Reactor.Run] (loop until DONE) or [Reactor.Iterate] (one
// step). Each step refreshes the descriptor cache if stale, waits for the
// lesser of the next timer deadline and the caller's bound, dispatches
// readiness, fires due timers, and inspects the signal latch.
//
// # Lifecycle
//
// The reactor's state is a strict DAG: INIT -> RUNNING -> STOPPING -> DONE.
// There is no restart and no backward transition. At most one reactor may
// be actively stepping in the process at any time; a concurrent or
// re-entrant step fails synchronously rather than corrupting loop state.
//
// # System events
//
// Firing a system event runs its BEFORE hooks in registration order. A
// BEFORE hook may return a [CompletionHandle] to suspend the event: DURING
// and AFTER then run only once every outstanding handle has resolved. This
// is the only sanctioned suspension idiom in an otherwise synchronous,
// single-threaded dispatch model.
//
// # Thread safety
//
// The loop itself is strictly single-threaded and cooperative: hooks,
// timers, and transport read/write callbacks all run inline on the loop's
// calling goroutine. The signal latch is the sole piece of state written
// from a signal handler context, and is written with a single atomic store.
package reactor
