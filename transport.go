package reactor

import "sync"

// TransportState models a [Transport]'s readiness for I/O, per §3. The
// data model also permits a PAUSED distinction, but per §3 "the core
// treats any state other than ACTIVE as non-readable" — PAUSED is
// included only so application code has somewhere to put it; the core
// itself only ever sets CLOSED, when poll reports an error or hangup bit.
type TransportState int

const (
	// TransportActive is the only state from which a transport's read
	// capability is consulted for descriptor-mask purposes.
	TransportActive TransportState = iota
	// TransportPaused is a non-ACTIVE state application code may use to
	// temporarily suppress read dispatch without closing the transport.
	TransportPaused
	// TransportClosed marks a transport for eviction on the next rebuild.
	TransportClosed
)

// Transport is the external collaborator contract from §6: a registered
// I/O endpoint with a descriptor and capability-gated read/write hooks.
// Only Descriptor, State, and SetState are mandatory; read capability,
// write capability, outbound-buffer/producer state, and closure are
// expressed as optional capability interfaces below, mirroring the
// original C reactor's nullable do_read/do_write function pointers.
type Transport interface {
	// Descriptor returns the underlying OS file handle.
	Descriptor() int
	// State returns the transport's current lifecycle state.
	State() TransportState
	// SetState is called by the reactor itself to mark a transport CLOSED
	// after an OS error/hangup bit (§4.4 step 5) or by application code
	// from within a read/write hook (§4.4's closing note).
	SetState(TransportState)
}

// Readable is the optional "read capability" from §3/§6. A transport
// implementing it is eligible for the POLLIN-equivalent mask bit while
// ACTIVE.
type Readable interface {
	DoRead()
}

// Writable is the optional "write capability" from §3/§6, bundled with the
// outbound-buffer "bytes pending" query (§3's "outbound byte buffer").
type Writable interface {
	DoWrite()
	Pending() int
}

// Producing is the optional producer reference from §3: a transport with a
// producer attached is eligible for the write mask even with an empty
// outbound buffer.
type Producing interface {
	HasProducer() bool
}

// Closable is the optional close hook invoked by TransportTable's rebuild
// pass when evicting a CLOSED transport (§4.3's "invoke its close hook").
type Closable interface {
	Close()
}

// pollEvents mirrors the bits a poll(2)-family primitive reports, kept
// platform-agnostic so transport.go has no build tags; poller_*.go
// translates to/from the OS-native representation.
type pollEvents uint32

const (
	eventReadable pollEvents = 1 << iota
	eventWritable
	eventError
	eventHangup
)

// descriptorSlot is one entry of the readiness-descriptor array mirrored
// against transports in registration order, per §3's "descriptor_cache"
// and §4.3's rebuild pass.
type descriptorSlot struct {
	fd       int
	requested pollEvents
}

// TransportTable is the ordered collection of Transports from §2, plus the
// cached readiness-descriptor array derived from it (§3/§4.3).
//
// The original C reactor keeps transports in a singly linked list so the
// kernel-facing pollfd array can be walked in lockstep by pointer
// advancement; §9 explicitly sanctions a single ordered sequence with
// inline readiness slots as an equally valid alternative. This
// implementation takes that alternative: a slice of Transports and a
// parallel slice of descriptorSlots, rebuilt together in one pass.
type TransportTable struct {
	mu         sync.Mutex
	transports []Transport
	slots      []descriptorSlot
	stale      bool
}

func newTransportTable() *TransportTable {
	return &TransportTable{}
}

// Add appends a transport to the table and marks the cache stale, per
// §6's "AddTransport(transport): appends to the table and marks the cache
// stale. Ownership of the transport transfers to the reactor."
func (t *TransportTable) Add(tr Transport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transports = append(t.transports, tr)
	t.stale = true
}

// MarkStale forces a rebuild on the next poll step, regardless of cause.
func (t *TransportTable) MarkStale() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stale = true
}

// Stale reports whether the descriptor cache must be rebuilt before the
// next poll, per §3's "descriptor_cache.stale implies the next loop step
// MUST rebuild before polling."
func (t *TransportTable) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stale
}

// Rebuild performs the single-traversal rebuild pass from §4.3: CLOSED
// transports are unlinked, their close hook invoked, and they are
// dropped from both the transport list and the descriptor cache; live
// transports get one descriptor slot each, with a requested-events mask
// computed from their capabilities. onClose is invoked for each evicted
// transport's Closable hook (captured here so callers can route panics
// through the reactor's guarded-invoke/log path without this file
// depending on it).
func (t *TransportTable) Rebuild(onClose func(Transport)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := t.transports[:0:0]
	slots := t.slots[:0:0]

	for _, tr := range t.transports {
		if tr.State() == TransportClosed {
			if _, ok := tr.(Closable); ok && onClose != nil {
				onClose(tr)
			}
			continue
		}

		var mask pollEvents
		if tr.State() == TransportActive {
			if _, ok := tr.(Readable); ok {
				mask |= eventReadable
			}
		}
		if w, ok := tr.(Writable); ok {
			pending := w.Pending() > 0
			hasProducer := false
			if p, ok := tr.(Producing); ok {
				hasProducer = p.HasProducer()
			}
			if pending || hasProducer {
				mask |= eventWritable
			}
		}

		live = append(live, tr)
		slots = append(slots, descriptorSlot{fd: tr.Descriptor(), requested: mask})
	}

	t.transports = live
	t.slots = slots
	t.stale = false
}

// snapshot returns the current (transports, slots) pair under lock, for
// the poll step to hand to the OS readiness primitive. The two slices are
// parallel: slots[i] describes transports[i].
func (t *TransportTable) snapshot() ([]Transport, []descriptorSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transports, t.slots
}

// Len reports the number of live (non-evicted) transports.
func (t *TransportTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.transports)
}
