package reactor

import "sync"

// CompletionHandle is the external collaborator contract described in §6:
// "a value for which identity is stable and on which a single 'on-resolve'
// callback may be registered taking (handle_identity, event_tag)".
//
// A BEFORE-phase system-event hook (§4.2) may return a value implementing
// this interface instead of a plain result, to suspend the event until
// asynchronous work completes. The reactor does not hold the handle
// itself (§9's refcount note collapses to: the reactor only needs the
// identity and a subscription), it only calls OnResolve once, immediately
// upon observing the return value.
type CompletionHandle interface {
	// Identity returns a value that is stable for the handle's lifetime,
	// suitable for use as a map or set key.
	Identity() any

	// OnResolve subscribes a single callback to be invoked when the
	// handle resolves (successfully or otherwise — the core does not
	// distinguish). Implementations must call resolve at most once.
	OnResolve(resolve func())
}

// deferSet tracks the identities of outstanding completion handles for the
// system event currently suspended in its BEFORE phase, per §3's
// defer_list. It is non-empty only between a BEFORE phase dispatching at
// least one handle and the last of those handles resolving.
type deferSet struct {
	mu      sync.Mutex
	pending map[any]struct{}
}

func newDeferSet() *deferSet {
	return &deferSet{pending: make(map[any]struct{})}
}

// add records a newly observed completion handle identity.
func (d *deferSet) add(identity any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[identity] = struct{}{}
}

// remove removes an identity, reporting whether the set is now empty (the
// "draining" transition that must trigger DURING/AFTER per §4.2).
func (d *deferSet) remove(identity any) (nowEmpty bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, identity)
	return len(d.pending) == 0
}

// empty reports whether the set currently holds no outstanding identities.
func (d *deferSet) empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) == 0
}

// len reports the number of outstanding identities (for tests/inspection).
func (d *deferSet) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
