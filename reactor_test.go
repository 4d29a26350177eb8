package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := NewReactor(WithSignalHandling(false))
	require.NoError(t, err)
	return r
}

func TestReactor_StartupFiresBeforeIterateReturns(t *testing.T) {
	r := newTestReactor(t)

	var ran bool
	_, err := r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		ran = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Iterate(0))
	assert.True(t, ran)
	assert.Equal(t, StateRunning, r.State())
}

func TestReactor_StopTransitionsThroughShutdown(t *testing.T) {
	r := newTestReactor(t)

	var afterShutdownRan bool
	_, err := r.AddSystemEventTrigger("after", "shutdown", func([]any, map[string]any) any {
		afterShutdownRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Iterate(0)) // INIT -> RUNNING
	require.Equal(t, StateRunning, r.State())

	r.Stop()
	assert.True(t, afterShutdownRan)
	assert.Equal(t, StateDone, r.State())
}

func TestReactor_DoubleIterateIsRejectedWhileRunning(t *testing.T) {
	r := newTestReactor(t)
	require.NoError(t, r.Iterate(0))

	runningReactor.Store(r)
	defer runningReactor.Store(nil)

	err := r.Iterate(0)
	assert.ErrorIs(t, err, ErrReactorAlreadyRunning)
}

func TestReactor_IterateAfterDoneFails(t *testing.T) {
	r := newTestReactor(t)
	require.NoError(t, r.Iterate(0))
	r.Stop()
	require.Equal(t, StateDone, r.State())

	err := r.Iterate(0)
	assert.ErrorIs(t, err, ErrReactorDone)
}

func TestReactor_BeforeStartupDefersUntilCompletionHandleResolves(t *testing.T) {
	r := newTestReactor(t)

	var handle *fakeHandle
	var duringRan, afterRan bool

	_, err := r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		handle = &fakeHandle{id: "startup-handle-1"}
		return handle
	}, nil, nil)
	require.NoError(t, err)

	_, err = r.AddSystemEventTrigger("during", "startup", func([]any, map[string]any) any {
		duringRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	_, err = r.AddSystemEventTrigger("after", "startup", func([]any, map[string]any) any {
		afterRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Iterate(0))

	require.NotNil(t, handle)
	assert.False(t, duringRan, "DURING must not run while a BEFORE completion handle is outstanding")
	assert.False(t, afterRan)
	// The state machine already advanced to RUNNING: §4.1's "fire STARTUP
	// before transitioning" only needs BEFORE's hooks to have been invoked,
	// not for the whole phase chain to have drained.
	assert.Equal(t, StateRunning, r.State())

	handle.resolve()

	assert.True(t, duringRan)
	assert.True(t, afterRan)
}

func TestReactor_StopDuringPendingStartupIsDeferred(t *testing.T) {
	r := newTestReactor(t)

	var handle *fakeHandle
	var shutdownAfterRan bool

	_, err := r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		handle = &fakeHandle{id: "startup-handle-2"}
		return handle
	}, nil, nil)
	require.NoError(t, err)

	_, err = r.AddSystemEventTrigger("after", "shutdown", func([]any, map[string]any) any {
		shutdownAfterRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Iterate(0))
	require.NotNil(t, handle)

	r.Stop() // must be deferred: STARTUP's BEFORE hasn't resolved yet
	assert.False(t, shutdownAfterRan)
	assert.NotEqual(t, StateDone, r.State())

	handle.resolve() // STARTUP finishes, then the pending stop applies
	assert.True(t, shutdownAfterRan)
	assert.Equal(t, StateDone, r.State())
}

func TestReactor_CallLaterAndCancel(t *testing.T) {
	clock := newFakeClock()
	r, err := NewReactor(WithSignalHandling(false), WithClock(clock.Now))
	require.NoError(t, err)

	fired := false
	id, err := r.CallLater(time.Second, func([]any, map[string]any) any {
		fired = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.CancelCallLater(id))
	assert.Error(t, r.CancelCallLater(id), "cancelling an already-cancelled id must fail")

	require.NoError(t, r.Iterate(0))
	clock.Advance(2 * time.Second)
	require.NoError(t, r.Iterate(0))

	assert.False(t, fired)
}

func TestReactor_RemoveSystemEventTrigger(t *testing.T) {
	r := newTestReactor(t)

	ran := false
	id, err := r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		ran = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.RemoveSystemEventTrigger(id))
	assert.Error(t, r.RemoveSystemEventTrigger(id))

	require.NoError(t, r.Iterate(0))
	assert.False(t, ran)
}

func TestReactor_InvalidRegistrationArgumentsFailSynchronously(t *testing.T) {
	r := newTestReactor(t)

	_, err := r.AddSystemEventTrigger("whenever", "startup", func([]any, map[string]any) any { return nil }, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidEventPhase)

	_, err = r.AddSystemEventTrigger("before", "reboot", func([]any, map[string]any) any { return nil }, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = r.AddSystemEventTrigger("before", "startup", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilCallable)
}

func TestReactor_PanickingHookDoesNotAbortPhase(t *testing.T) {
	r := newTestReactor(t)

	var secondRan bool
	_, err := r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		panic("boom")
	}, nil, nil)
	require.NoError(t, err)
	_, err = r.AddSystemEventTrigger("before", "startup", func([]any, map[string]any) any {
		secondRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		require.NoError(t, r.Iterate(0))
	})
	assert.True(t, secondRan)
}

func TestReactor_CrashSkipsShutdownPhase(t *testing.T) {
	r := newTestReactor(t)

	var shutdownRan bool
	_, err := r.AddSystemEventTrigger("before", "shutdown", func([]any, map[string]any) any {
		shutdownRan = true
		return nil
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Iterate(0))
	r.Crash()

	assert.Equal(t, StateDone, r.State())
	assert.False(t, shutdownRan)
}

func TestReactor_ResolveAndCallFromThreadAreUnimplemented(t *testing.T) {
	r := newTestReactor(t)
	_, err := r.Resolve("example.invalid")
	assert.ErrorIs(t, err, ErrResolveNotImplemented)

	err = r.CallFromThread(func([]any, map[string]any) any { return nil }, nil, nil)
	assert.ErrorIs(t, err, ErrCallFromThreadNotImplemented)
}
