package hub

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DoyleJ11/partyroom-backend/internal/room"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

type listed struct {
	kind room.Kind
	wire.RoomListing
}

// Listing is the lobby board of joinable rooms. Rooms publish into it from their own
// goroutines; Run pushes it to every connection when it changes.
type Listing struct {
	mu      sync.RWMutex
	entries map[string]listed
	version uint64
}

func NewListing() *Listing {
	return &Listing{entries: make(map[string]listed)}
}

func (l *Listing) Publish(kind room.Kind, e wire.RoomListing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := listed{kind: kind, RoomListing: e}
	if cur, ok := l.entries[e.Code]; ok && cur == next {
		return
	}
	l.entries[e.Code] = next
	l.version++
}

func (l *Listing) Remove(code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[code]; !ok {
		return
	}
	delete(l.entries, code)
	l.version++
}

// Snapshot returns the board sorted by code, with its version.
func (l *Listing) Snapshot() (wire.RoomList, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := wire.RoomList{Bingo: []wire.RoomListing{}, Quiz: []wire.RoomListing{}}
	for _, e := range l.entries {
		if e.kind == room.KindQuiz {
			out.Quiz = append(out.Quiz, e.RoomListing)
		} else {
			out.Bingo = append(out.Bingo, e.RoomListing)
		}
	}
	byCode := func(a, b wire.RoomListing) int { return strings.Compare(a.Code, b.Code) }
	slices.SortFunc(out.Bingo, byCode)
	slices.SortFunc(out.Quiz, byCode)
	return out, l.version
}

func (l *Listing) Message() types.ServerMessage {
	list, _ := l.Snapshot()
	return types.ServerMessage{Type: wire.EvtRoomList, Data: list}
}

type Broadcaster interface {
	Broadcast(msg types.ServerMessage) int
}

// Run pushes room-list to every connection each interval the board changed.
func (l *Listing) Run(ctx context.Context, b Broadcaster, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			list, version := l.Snapshot()
			if version == sent {
				continue
			}
			sent = version
			b.Broadcast(types.ServerMessage{Type: wire.EvtRoomList, Data: list})
		}
	}
}
