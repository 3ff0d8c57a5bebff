package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/network/conntest"
	"pongmatch/internal/session/message"
	"pongmatch/internal/session/registry"
)

func TestRegistry_LastWriterWins(t *testing.T) {
	reg := registry.New(nil)
	first := conntest.New("u1")
	second := conntest.New("u1")

	assert.Nil(t, reg.Register("u1", first))
	replaced := reg.Register("u1", second)
	require.NotNil(t, replaced)
	assert.Equal(t, first.ID(), replaced.ID())

	cur, ok := reg.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, second.ID(), cur.ID())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_UnregisterIgnoresStaleConnection(t *testing.T) {
	reg := registry.New(nil)
	old := conntest.New("u1")
	cur := conntest.New("u1")
	reg.Register("u1", old)
	reg.Register("u1", cur)

	assert.False(t, reg.Unregister("u1", old.ID()))
	assert.True(t, reg.IsCurrent("u1", cur.ID()))

	assert.True(t, reg.Unregister("u1", cur.ID()))
	_, ok := reg.Lookup("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Notify(t *testing.T) {
	reg := registry.New(nil)
	c := conntest.New("u1")
	reg.Register("u1", c)

	ok := reg.Notify("u1", message.AutoRequeued{GameMode: "pong_1v1", Pos: 3})
	require.True(t, ok)

	evt := conntest.MustLast[message.AutoRequeued](t, c, message.EventAutoRequeued)
	assert.Equal(t, 3, evt.Pos)

	assert.False(t, reg.Notify("offline", message.AutoRequeued{}))

	c.Close()
	assert.False(t, reg.Notify("u1", message.AutoRequeued{}))
}
