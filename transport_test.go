package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is a minimal, fully-optional-capability-equipped Transport
// used across the table/rebuild tests.
type fakeTransport struct {
	fd          int
	state       TransportState
	readable    bool
	writable    bool
	pending     int
	hasProducer bool
	closed      bool
	reads       int
	writes      int
}

func (f *fakeTransport) Descriptor() int            { return f.fd }
func (f *fakeTransport) State() TransportState       { return f.state }
func (f *fakeTransport) SetState(s TransportState)   { f.state = s }
func (f *fakeTransport) HasProducer() bool           { return f.hasProducer }
func (f *fakeTransport) Close()                      { f.closed = true }

type readWriteTransport struct{ *fakeTransport }

func (r readWriteTransport) DoRead()      { r.reads++ }
func (r readWriteTransport) DoWrite()     { r.writes++ }
func (r readWriteTransport) Pending() int { return r.pending }

var (
	_ Transport  = (*fakeTransport)(nil)
	_ Readable   = readWriteTransport{}
	_ Writable   = readWriteTransport{}
	_ Producing  = (*fakeTransport)(nil)
	_ Closable   = (*fakeTransport)(nil)
)

func TestTransportTable_RebuildComputesMasks(t *testing.T) {
	table := newTransportTable()

	active := &fakeTransport{fd: 5, state: TransportActive}
	table.Add(readWriteTransport{active})

	pendingWrite := &fakeTransport{fd: 6, state: TransportActive, pending: 10}
	table.Add(readWriteTransport{pendingWrite})

	noProducerNoPending := &fakeTransport{fd: 7, state: TransportActive}
	table.Add(readWriteTransport{noProducerNoPending})

	require.True(t, table.Stale())
	table.Rebuild(nil)
	require.False(t, table.Stale())

	transports, slots := table.snapshot()
	require.Len(t, slots, 3)

	for i, tr := range transports {
		ft := tr.(readWriteTransport).fakeTransport
		switch ft.fd {
		case 5:
			assert.Equal(t, eventReadable, slots[i].requested&eventReadable)
			assert.Zero(t, slots[i].requested&eventWritable)
		case 6:
			assert.NotZero(t, slots[i].requested&eventWritable, "pending bytes must set the writable bit")
		case 7:
			assert.Zero(t, slots[i].requested&eventWritable, "no pending bytes and no producer must not set writable")
		}
	}
}

func TestTransportTable_RebuildEvictsClosed(t *testing.T) {
	table := newTransportTable()

	live := &fakeTransport{fd: 1, state: TransportActive}
	closing := &fakeTransport{fd: 2, state: TransportClosed}
	table.Add(readWriteTransport{live})
	table.Add(readWriteTransport{closing})

	var closedDescriptors []int
	table.Rebuild(func(tr Transport) {
		closedDescriptors = append(closedDescriptors, tr.Descriptor())
		if c, ok := tr.(Closable); ok {
			c.Close()
		}
	})

	assert.Equal(t, []int{2}, closedDescriptors)
	assert.True(t, closing.closed)
	assert.Equal(t, 1, table.Len())
}

func TestTransportTable_PausedIsNotReadable(t *testing.T) {
	table := newTransportTable()
	paused := &fakeTransport{fd: 1, state: TransportPaused}
	table.Add(readWriteTransport{paused})

	table.Rebuild(nil)
	_, slots := table.snapshot()
	require.Len(t, slots, 1)
	assert.Zero(t, slots[0].requested&eventReadable)
}

func TestTransportTable_ProducerEnablesWritableWithNoPending(t *testing.T) {
	table := newTransportTable()
	producing := &fakeTransport{fd: 1, state: TransportActive, hasProducer: true}
	table.Add(readWriteTransport{producing})

	table.Rebuild(nil)
	_, slots := table.snapshot()
	require.Len(t, slots, 1)
	assert.NotZero(t, slots[0].requested&eventWritable)
}
