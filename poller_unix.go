//go:build !windows

package reactor

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// poll is the OS readiness primitive from §4.4 step 3: given the current
// descriptor slots, block up to timeout for any to become ready and
// report back per-slot event bits in the same order. Grounded on the
// original C reactor's direct poll(2) call rather than the teacher's
// epoll-based FastPoller, to match the literal pollfd/revents/timeout
// contract §4.4 describes.
//
// errInterrupted is returned (wrapping nothing) when poll(2) failed with
// EINTR, so step 4's "interrupted by signal" branch can be distinguished
// from any other failure, which is returned wrapped as "poll: <cause>".
func poll(slots []descriptorSlot, timeout time.Duration) ([]pollEvents, error) {
	if len(slots) == 0 {
		// Still honor the timeout: a descriptor-less reactor must be able
		// to wait out its delay/timer schedule.
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}

	fds := make([]unix.PollFd, len(slots))
	for i, s := range slots {
		fds[i] = unix.PollFd{Fd: int32(s.fd), Events: toNativeEvents(s.requested)}
	}

	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	if timeout < 0 {
		ms = -1
	}

	_, err := unix.Poll(fds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, errInterrupted
		}
		return nil, WrapError("poll", err)
	}

	out := make([]pollEvents, len(fds))
	for i, fd := range fds {
		out[i] = fromNativeEvents(fd.Revents)
	}
	return out, nil
}

func toNativeEvents(e pollEvents) int16 {
	var n int16
	if e&eventReadable != 0 {
		n |= unix.POLLIN
	}
	if e&eventWritable != 0 {
		n |= unix.POLLOUT
	}
	return n
}

func fromNativeEvents(revents int16) pollEvents {
	var e pollEvents
	if revents&unix.POLLIN != 0 {
		e |= eventReadable
	}
	if revents&unix.POLLOUT != 0 {
		e |= eventWritable
	}
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		e |= eventError
	}
	if revents&unix.POLLHUP != 0 {
		e |= eventHangup
	}
	return e
}
