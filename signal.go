package reactor

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// SignalBridge is the process-wide latch described in §3 and §5: a single
// word, set by a signal handler and read by the reactor's step loop. It is
// the only piece of reactor state written from outside the loop goroutine,
// and per §5 must be a single machine-word store with no further
// synchronization on the read side.
//
// The original C reactor installs a raw signal(2) handler that stores into
// a `volatile int`; Go has no async-signal-safe user code, so this instead
// uses [signal.Notify] with a buffered channel and a background goroutine
// that performs the single atomic store — the observable contract (a
// latch, written once per delivery, read without blocking) is preserved.
type SignalBridge struct {
	latch   atomic.Bool
	once    sync.Once
	sigCh   chan os.Signal
	stopCh  chan struct{}
	started atomic.Bool
}

// newSignalBridge constructs an unarmed SignalBridge. Handlers are not
// installed until Install is called.
func newSignalBridge() *SignalBridge {
	return &SignalBridge{
		sigCh:  make(chan os.Signal, 2),
		stopCh: make(chan struct{}),
	}
}

// Install arms SIGINT and SIGTERM handlers that set the latch. Per §4.1,
// this happens once, on the reactor's first step, not at construction.
// Calling Install more than once is a no-op.
func (b *SignalBridge) Install() {
	b.once.Do(func() {
		b.started.Store(true)
		signal.Notify(b.sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			for {
				select {
				case <-b.sigCh:
					b.latch.Store(true)
				case <-b.stopCh:
					return
				}
			}
		}()
	})
}

// Tripped reports whether the latch has been set since the last Clear.
func (b *SignalBridge) Tripped() bool {
	return b.latch.Load()
}

// Clear resets the latch to its untripped state.
func (b *SignalBridge) Clear() {
	b.latch.Store(false)
}

// Stop tears down the signal handler goroutine, if one was installed. It is
// idempotent and safe to call even if Install was never called.
func (b *SignalBridge) Stop() {
	if b.started.CompareAndSwap(true, false) {
		signal.Stop(b.sigCh)
		close(b.stopCh)
	}
}
