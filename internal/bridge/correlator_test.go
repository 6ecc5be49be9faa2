package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelatorExactlyOnce(t *testing.T) {
	c := NewCorrelator()
	tk, ok := c.Begin("p", 1, "f")
	require.True(t, ok)
	assert.Equal(t, 1, c.InFlight())

	_, ok = c.Begin("p", 1, "f")
	assert.False(t, ok, "duplicate in flight")

	assert.True(t, c.Complete(tk))
	assert.False(t, c.Complete(tk))
	assert.Equal(t, 0, c.InFlight())

	_, ok = c.Begin("p", 1, "f")
	assert.True(t, ok, "seq reusable once settled")
}

func TestCorrelatorResetDropsStaleTickets(t *testing.T) {
	c := NewCorrelator()
	a, _ := c.Begin("p", 1, "f")
	_, _ = c.Begin("p", 2, "f")

	assert.Equal(t, 2, c.Reset())
	assert.Equal(t, uint64(1), c.generation())
	assert.Equal(t, 0, c.InFlight())
	assert.False(t, c.Complete(a))

	b, ok := c.Begin("q", 1, "f")
	require.True(t, ok)
	assert.True(t, c.Complete(b))
	assert.False(t, c.Complete(nil))
}
