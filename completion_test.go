package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeferSet_DrainsToEmpty(t *testing.T) {
	d := newDeferSet()
	assert.True(t, d.empty())

	d.add("a")
	d.add("b")
	assert.Equal(t, 2, d.len())
	assert.False(t, d.empty())

	assert.False(t, d.remove("a"), "set still has 'b' outstanding")
	assert.True(t, d.remove("b"), "removing the last identity must report empty")
	assert.True(t, d.empty())
}

func TestDeferSet_RemoveUnknownIsNoop(t *testing.T) {
	d := newDeferSet()
	d.add("a")
	assert.False(t, d.remove("nonexistent"))
	assert.Equal(t, 1, d.len())
}

// fakeHandle is a minimal CompletionHandle for tests: identity is a plain
// string, and OnResolve captures the callback so the test can trigger
// resolution explicitly.
type fakeHandle struct {
	id       string
	resolved func()
}

func (f *fakeHandle) Identity() any           { return f.id }
func (f *fakeHandle) OnResolve(fn func())     { f.resolved = fn }
func (f *fakeHandle) resolve()                { f.resolved() }

var _ CompletionHandle = (*fakeHandle)(nil)
