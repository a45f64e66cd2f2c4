package identity

import (
	"sync"

	"github.com/DoyleJ11/partyroom-backend/internal/types"
)

// Registry maps a stable player identity to the handle currently representing it, and
// to the room that identity belongs to. The room binding outlives the handle so a
// reconnecting player can be routed back to its room.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	rooms   map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*Handle),
		rooms:   make(map[string]string),
	}
}

// Bind makes h the current handle for its player and returns the handle it replaced, if any.
func (r *Registry) Bind(h *Handle) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.handles[h.PlayerID]
	r.handles[h.PlayerID] = h
	if prev == h {
		return nil
	}
	return prev
}

// Release unbinds h. It reports false when h had already been superseded, in which
// case the player is still connected through a newer handle.
func (r *Registry) Release(h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[h.PlayerID] != h {
		return false
	}
	delete(r.handles, h.PlayerID)
	return true
}

func (r *Registry) IsCurrent(h *Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[h.PlayerID] == h
}

func (r *Registry) Current(playerID string) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[playerID]
}

// HandleOf returns the id of the handle bound to playerID, or "" when none is.
func (r *Registry) HandleOf(playerID string) string {
	if h := r.Current(playerID); h != nil {
		return h.ID
	}
	return ""
}

// Send delivers msg to whichever handle is bound to playerID right now.
func (r *Registry) Send(playerID string, msg types.ServerMessage) bool {
	h := r.Current(playerID)
	if h == nil {
		return false
	}
	return h.Deliver(msg)
}

// Broadcast delivers msg to every bound handle.
func (r *Registry) Broadcast(msg types.ServerMessage) int {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	sent := 0
	for _, h := range handles {
		if h.Deliver(msg) {
			sent++
		}
	}
	return sent
}

func (r *Registry) SetRoom(playerID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[playerID] = code
}

// ClearRoom drops the room binding only if it still points at code, so a late
// cleanup from an old room cannot detach a player who already moved on.
func (r *Registry) ClearRoom(playerID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[playerID] == code {
		delete(r.rooms, playerID)
	}
}

func (r *Registry) RoomOf(playerID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[playerID]
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
