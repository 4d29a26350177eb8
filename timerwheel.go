package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is one scheduled callback, ordered by absolute deadline.
// Ties are broken by insertion sequence per §4.5: "ties broken by
// insertion order".
type timerEntry struct {
	id       MethodID
	deadline time.Time
	seq      uint64
	method   Method
	index    int // heap index, maintained by container/heap
}

// timerHeap is a min-heap of timerEntry, ordered earliest-deadline-first.
// Grounded on the teacher's loop.go timerHeap (container/heap over a
// []timer slice), extended with a stable insertion sequence for tie
// breaking and a side index for O(log n) cancellation by id.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerWheel is a collection of timed [Method] callbacks ordered by
// earliest-first deadline, with cancellation support, per §2 and §4.5.
//
// Despite the name (kept for fidelity to §2's component list), this is
// implemented as a deadline-ordered binary heap rather than a bucketed
// wheel: at the scale this reactor operates at (one process-wide loop),
// a heap gives exact deadlines with O(log n) schedule/cancel, which the
// bucketed-wheel structure trades away for O(1) amortized insertion that
// this reactor doesn't need.
type TimerWheel struct {
	mu     sync.Mutex
	heap   timerHeap
	byID   map[MethodID]*timerEntry
	nextID MethodID
	seq    uuidSeq
	now    func() time.Time
}

// uuidSeq is a tiny monotonic counter, named for what it orders (tie
// breaking), not for any relation to RFC 4122 UUIDs.
type uuidSeq uint64

func newTimerWheel(now func() time.Time) *TimerWheel {
	if now == nil {
		now = time.Now
	}
	return &TimerWheel{
		byID: make(map[MethodID]*timerEntry),
		now:  now,
	}
}

// Schedule computes deadline = now + delay, inserts the entry ordered by
// deadline, and returns a fresh monotonic id, per §4.5's "schedule(delay,
// callable, args, kwargs) -> id".
func (w *TimerWheel) Schedule(delay time.Duration, fn Callable, args []any, kwargs map[string]any) MethodID {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := w.nextID
	w.seq++

	deadline := w.now().Add(delay)
	e := &timerEntry{
		id:       id,
		deadline: deadline,
		seq:      uint64(w.seq),
		method:   Method{ID: id, Fn: fn, Args: args, Kwargs: kwargs, Deadline: deadline},
	}
	heap.Push(&w.heap, e)
	w.byID[id] = e
	return id
}

// Cancel removes the entry with the given id; per §4.5 it is a no-op if
// absent. Reports whether an entry was actually removed.
func (w *TimerWheel) Cancel(id MethodID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.byID[id]
	if !ok {
		return false
	}
	delete(w.byID, id)
	if e.index >= 0 {
		heap.Remove(&w.heap, e.index)
	}
	return true
}

// NextDelay returns the head deadline minus now, clamped to zero, or -1 if
// the wheel is empty, per §4.5's "next_delay() -> seconds or -1".
func (w *TimerWheel) NextDelay() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.heap) == 0 {
		return -1
	}
	d := w.heap[0].deadline.Sub(w.now())
	if d < 0 {
		d = 0
	}
	return d
}

// RunDue removes and invokes every entry with deadline <= now, in deadline
// order (ties by insertion order), per §4.5's "run_due(now)". Callable
// failures are reported via onPanic and swallowed — they do not stop the
// sweep, per §4.5 and §7.
func (w *TimerWheel) RunDue(now time.Time, onPanic func(id MethodID, recovered any)) {
	for {
		w.mu.Lock()
		if len(w.heap) == 0 || w.heap[0].deadline.After(now) {
			w.mu.Unlock()
			return
		}
		e := heap.Pop(&w.heap).(*timerEntry)
		delete(w.byID, e.id)
		w.mu.Unlock()

		invokeGuarded(e.method, func(r any) {
			if onPanic != nil {
				onPanic(e.id, r)
			}
		})
	}
}

// Len reports the number of outstanding (not yet fired, not cancelled)
// timers.
func (w *TimerWheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.heap)
}

// invokeGuarded calls m's callable, recovering any panic and routing it to
// onRecover rather than letting it unwind past the caller — the §7 policy
// for "User-callback exception": caught, reported, swallowed.
func invokeGuarded(m Method, onRecover func(r any)) (result any) {
	defer func() {
		if r := recover(); r != nil && onRecover != nil {
			onRecover(r)
		}
	}()
	return m.invoke()
}
