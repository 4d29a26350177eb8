//go:build windows

package reactor

import "time"

// poll on Windows: golang.org/x/sys/unix.Poll is POSIX-only, so there is no
// direct equivalent wired up on this platform. Timer-only operation (no
// registered transports) still works, since the reactor's own timer/signal
// handling doesn't depend on the OS readiness primitive. Once any Transport
// is registered on this build, Reactor.Iterate (and so Run) returns an
// error wrapping errUnsupportedPlatform.
func poll(slots []descriptorSlot, timeout time.Duration) ([]pollEvents, error) {
	if len(slots) != 0 {
		return nil, WrapError("poll", errUnsupportedPlatform)
	}
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return nil, nil
}
