package reactor

import (
	"sync"
	"time"
)

// MethodID identifies a registered [Method]. Per §3, ids are monotonic
// integers assigned at registration and stable for the method's lifetime.
// System-event hook ids are unique within their [EventRegistry] and timer
// ids within their [TimerWheel]; a hook and a timer may share an id value.
type MethodID uint64

// Callable is a deferred invocation: a callable bound to its positional and
// keyword arguments, per §3's "Method (registered callable)". It is invoked
// with the args/kwargs it was registered with, and may return a value —
// system-event BEFORE hooks use the return value to detect a
// [CompletionHandle] (§4.2); timer and transport callbacks ignore it.
type Callable func(args []any, kwargs map[string]any) any

// Method is a single registered, deferred invocation: identity, payload,
// and (for timer use) an absolute deadline.
type Method struct {
	ID       MethodID
	Fn       Callable
	Args     []any
	Kwargs   map[string]any
	Deadline time.Time // zero unless this Method belongs to a TimerWheel
}

// invoke calls the method's callable with its bound arguments.
func (m Method) invoke() any {
	return m.Fn(m.Args, m.Kwargs)
}

// MethodList is an ordered sequence of [Method] values, the leaf component
// behind each cell of [EventRegistry] (system-event hooks); [TimerWheel]
// stores [Method] values in its own deadline heap instead. Methods execute in registration (FIFO) order per
// §5; removal is by id and a no-op if the id is absent.
type MethodList struct {
	mu      sync.Mutex
	methods []Method
	nextID  MethodID
}

// Add appends a new method to the list in registration order and returns
// its fresh, monotonic id.
func (l *MethodList) Add(fn Callable, args []any, kwargs map[string]any) MethodID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.methods = append(l.methods, Method{ID: id, Fn: fn, Args: args, Kwargs: kwargs})
	return id
}

// Remove removes the method with the given id. Reports false (no-op) if
// the id is absent, per §4.6's "removeSystemEventTrigger"/"cancelCallLater"
// contract.
func (l *MethodList) Remove(id MethodID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, m := range l.methods {
		if m.ID == id {
			l.methods = append(l.methods[:i], l.methods[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current methods, in registration order.
// Taking a snapshot before dispatch allows a method invoked during the
// walk to safely register or remove other methods without mutating the
// slice being iterated.
func (l *MethodList) Snapshot() []Method {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Method, len(l.methods))
	copy(out, l.methods)
	return out
}

// Len reports the number of registered methods.
func (l *MethodList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.methods)
}
