package ws

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRegistry(logger)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)

	r.Register(7, c)

	got, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = r.Lookup(8)
	assert.False(t, ok)
}

func TestRegistrySecondConnectionWins(t *testing.T) {
	r := newTestRegistry()
	first := NewClient(nil)
	second := NewClient(nil)

	r.Register(7, first)
	r.Register(7, second)

	got, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []int{7}, r.SnapshotIDs())
}

func TestRegistryStaleUnregisterKeepsSuccessor(t *testing.T) {
	r := newTestRegistry()
	first := NewClient(nil)
	second := NewClient(nil)

	r.Register(7, first)
	r.Register(7, second)

	// The replaced connection's read loop tears down after the successor
	// registered. Its deregistration must not evict the successor.
	r.Unregister(7, first)

	got, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Same(t, second, got)

	r.Unregister(7, second)
	_, ok = r.Lookup(7)
	assert.False(t, ok)
}

func TestRegistrySnapshotIDsSorted(t *testing.T) {
	r := newTestRegistry()

	for _, id := range []int{42, 3, 17} {
		r.Register(id, NewClient(nil))
	}

	assert.Equal(t, []int{3, 17, 42}, r.SnapshotIDs())
}

func TestRegistryAnonymousNotAddressable(t *testing.T) {
	r := newTestRegistry()
	anon := NewClient(nil)

	r.RegisterAnonymous(anon)

	assert.Empty(t, r.SnapshotIDs())

	// Notify has no id to address an anonymous connection by; nothing to
	// assert beyond the absence of a panic.
	r.Notify(999, "new_message", map[string]any{"id": 1})

	r.UnregisterAnonymous(anon)
	assert.Empty(t, r.SnapshotIDs())
}

func TestRegistryNotifyAfterUnregisterIsNoop(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)

	r.Register(7, c)
	r.Unregister(7, c)

	r.Notify(7, "new_message", nil)

	_, ok := r.Lookup(7)
	assert.False(t, ok)
}
