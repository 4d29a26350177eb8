package reactor

import (
	"errors"
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// Standard errors returned by the reactor's registration and lifecycle APIs.
//
// Following §7 of the specification: argument validation errors are
// returned synchronously to the caller, never swallowed.
var (
	// ErrReactorAlreadyRunning is returned when Run or Iterate is called on
	// a reactor that is already stepping elsewhere in the process.
	ErrReactorAlreadyRunning = errors.New("reactor: a reactor is already running")

	// ErrReactorDone is returned by Iterate (and so Run) when the reactor
	// has already reached the DONE state.
	ErrReactorDone = errors.New("reactor: reactor has reached the DONE state")

	// ErrInvalidEventPhase is returned when AddSystemEventTrigger is given
	// a phase other than "before", "during", or "after".
	ErrInvalidEventPhase = errors.New("reactor: invalid event phase")

	// ErrInvalidEventType is returned when AddSystemEventTrigger or
	// ParseEventType is given a type other than "startup", "shutdown", or
	// "persist".
	ErrInvalidEventType = errors.New("reactor: invalid event type")

	// ErrNilCallable is returned when a registration API is given a nil
	// callable.
	ErrNilCallable = errors.New("reactor: callable must not be nil")

	// ErrUnknownMethodID is returned by removal APIs when the given id was
	// never registered, or has already fired/been removed.
	ErrUnknownMethodID = errors.New("reactor: unknown method id")

	// ErrResolveNotImplemented is returned by Resolve. Name resolution is
	// an external collaborator's concern per §1 and is not implemented by
	// the core.
	ErrResolveNotImplemented = errors.New("reactor: Resolve is not implemented by the core reactor")

	// ErrCallFromThreadNotImplemented is returned by CallFromThread.
	// Cross-thread scheduling is explicitly out of scope per §1.
	ErrCallFromThreadNotImplemented = errors.New("reactor: CallFromThread is not implemented by the core reactor")

	// errInterrupted marks a poll(2)-family call that returned EINTR, per
	// §4.4 step 4's "interrupted by signal" branch. Internal only: it never
	// escapes a step, since that branch is handled in-line.
	errInterrupted = errors.New("reactor: poll interrupted by signal")

	// errUnsupportedPlatform is returned by poll on a build that has no OS
	// readiness primitive wired up (currently: windows) when any transport
	// is registered.
	errUnsupportedPlatform = errors.New("reactor: transports are not supported on this platform")

	// errNonErrorPanic marks a recovered panic whose value wasn't an error
	// (e.g. a string or other literal passed to panic()).
	errNonErrorPanic = errors.New("reactor: recovered non-error panic value")
)

// WrapError wraps an error with a message, preserving the cause chain so
// that errors.Is(result, cause) holds.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// hookErrorLimiter rate-limits how often a misbehaving hook, timer, or
// transport callback's panic/error is written to the process error stream.
// A hook that throws on every tick would otherwise flood the log; §7
// requires such faults be reported and swallowed, not that they be
// reported unboundedly often.
type hookErrorLimiter struct {
	limiter *catrate.Limiter
}

func newHookErrorLimiter() *hookErrorLimiter {
	return &hookErrorLimiter{limiter: catrate.NewLimiter(map[time.Duration]int{
		time.Second: 1,
		time.Minute: 20,
	})}
}

// allow reports whether a report for the given category (typically a
// method id or transport descriptor) should be emitted now.
func (h *hookErrorLimiter) allow(category any) bool {
	if h == nil || h.limiter == nil {
		return true
	}
	_, ok := h.limiter.Allow(category)
	return ok
}
