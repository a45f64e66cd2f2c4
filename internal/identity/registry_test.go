package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/partyroom-backend/internal/types"
)

func TestRegistry_RebindReplacesHandle(t *testing.T) {
	reg := NewRegistry()
	first := NewHandle("p1", 4)
	second := NewHandle("p1", 4)

	require.Nil(t, reg.Bind(first))
	require.Same(t, first, reg.Bind(second))
	require.Same(t, second, reg.Current("p1"))

	assert.False(t, reg.IsCurrent(first))
	assert.True(t, reg.IsCurrent(second))

	// The stale handle closing must not unbind the live one.
	assert.False(t, reg.Release(first))
	assert.Same(t, second, reg.Current("p1"))

	assert.True(t, reg.Release(second))
	assert.Nil(t, reg.Current("p1"))
}

func TestRegistry_SendAddressesCurrentHandle(t *testing.T) {
	reg := NewRegistry()
	old := NewHandle("p1", 4)
	reg.Bind(old)
	cur := NewHandle("p1", 4)
	reg.Bind(cur)

	require.True(t, reg.Send("p1", types.ServerMessage{Type: "ping"}))
	require.Len(t, cur.Outbox(), 1)
	require.Len(t, old.Outbox(), 0)

	require.False(t, reg.Send("nobody", types.ServerMessage{Type: "ping"}))
}

func TestRegistry_RoomBindingSurvivesRelease(t *testing.T) {
	reg := NewRegistry()
	h := NewHandle("p1", 1)
	reg.Bind(h)
	reg.SetRoom("p1", "ABCD")
	reg.Release(h)

	require.Equal(t, "ABCD", reg.RoomOf("p1"))

	reg.ClearRoom("p1", "WXYZ")
	require.Equal(t, "ABCD", reg.RoomOf("p1"))
	reg.ClearRoom("p1", "ABCD")
	require.Equal(t, "", reg.RoomOf("p1"))
}

func TestRegistry_Broadcast(t *testing.T) {
	reg := NewRegistry()
	a := NewHandle("a", 2)
	b := NewHandle("b", 2)
	reg.Bind(a)
	reg.Bind(b)

	require.Equal(t, 2, reg.Broadcast(types.ServerMessage{Type: "room-list"}))
	require.Equal(t, 2, reg.Len())
}

func TestHandle_DropsSlowClient(t *testing.T) {
	h := NewHandle("p1", 1)

	require.True(t, h.Deliver(types.ServerMessage{Type: "one"}))
	require.False(t, h.Deliver(types.ServerMessage{Type: "two"}))
	require.True(t, h.Closed())

	msg, ok := <-h.Outbox()
	require.True(t, ok)
	require.Equal(t, "one", msg.Type)
	_, ok = <-h.Outbox()
	require.False(t, ok, "outbox should be closed after drop")

	require.False(t, h.Deliver(types.ServerMessage{Type: "three"}))
	h.Close() // idempotent
}

func TestRegistry_HandleOf(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, "", reg.HandleOf("p1"))

	first := NewHandle("p1", 1)
	reg.Bind(first)
	require.Equal(t, first.ID, reg.HandleOf("p1"))

	second := NewHandle("p1", 1)
	reg.Bind(second)
	require.Equal(t, second.ID, reg.HandleOf("p1"))
	require.NotEqual(t, first.ID, second.ID)

	reg.Release(second)
	require.Equal(t, "", reg.HandleOf("p1"))
}
