package identity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/DoyleJ11/partyroom-backend/internal/types"
)

// Handle is one live transport connection. The same player gets a new Handle on every
// reconnect; rooms never hold Handles, they look the current one up by player id.
type Handle struct {
	ID       string
	PlayerID string

	mu     sync.Mutex
	out    chan types.ServerMessage
	closed bool
}

func NewHandle(playerID string, buffer int) *Handle {
	return &Handle{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		out:      make(chan types.ServerMessage, buffer),
	}
}

// Outbox is drained by the connection writer. It is closed when the handle is closed
// or dropped for being too slow.
func (h *Handle) Outbox() <-chan types.ServerMessage { return h.out }

// Deliver queues msg without blocking. A full outbox means the client is slow/stuck:
// the handle is closed so its writer exits and the connection is torn down.
func (h *Handle) Deliver(msg types.ServerMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	select {
	case h.out <- msg:
		return true
	default:
		h.closed = true
		close(h.out)
		return false
	}
}

func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.out)
	}
}

func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
