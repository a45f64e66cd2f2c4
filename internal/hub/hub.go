// Package hub owns the set of live rooms. Codes are allocated inside the hub loop so
// uniqueness across both room kinds is checked without locks.
package hub

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/room"
	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
)

const maxCodeAttempts = 64

var ErrNoCode = errors.New("could not allocate a room code")
var ErrClosed = errors.New("hub is shut down")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Kind  room.Kind
	Reply chan *room.Room // nil when no code could be allocated
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom forgets Code only while it still maps to Room, so a late removal
// cannot evict a newer room that reused the code.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     room.Config
	deps    room.Deps
	log     *zap.Logger
	newCode func() (string, error)
}

// NewHub starts the hub. Ledger entries in seed come back as empty bingo rooms.
func NewHub(parent context.Context, cfg room.Config, deps room.Deps, seed map[string]stats.Entry) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		log:     deps.Log.Named("hub"),
		newCode: GenerateCode,
	}
	deps.OnClose = func(code string, r *room.Room) { h.Send(RemoveRoom{Code: code, Room: r}) }
	h.deps = deps

	for code, e := range seed {
		if _, ok := types.NormalizeCode(code); !ok {
			h.log.Warn("skipping ledger entry with bad code", zap.String("room", code))
			continue
		}
		h.rooms[code] = room.Restore(ctx, code, e, cfg, deps)
	}
	if len(seed) > 0 {
		h.log.Info("rooms restored from ledger", zap.Int("rooms", len(h.rooms)))
	}

	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send queues m unless the hub has shut down.
func (h *Hub) Send(m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Shutdown closes every room and stops the hub. It returns once the hub has stopped
// or ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	if !h.Send(ShutdownHub{}) {
		return nil
	}
	select {
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create allocates a code and starts an empty room of kind.
func (h *Hub) Create(ctx context.Context, kind room.Kind) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if !h.Send(CreateRoom{Kind: kind, Reply: reply}) {
		return nil, ErrClosed
	}
	select {
	case r := <-reply:
		if r == nil {
			return nil, ErrNoCode
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrClosed
	}
}

// Get returns the live room for code, or nil.
func (h *Hub) Get(ctx context.Context, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	if !h.Send(GetRoom{Code: code, Reply: reply}) {
		return nil
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) Len(ctx context.Context) int {
	reply := make(chan int, 1)
	if !h.Send(CountRooms{Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	case <-h.ctx.Done():
		return 0
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code, err := h.allocate()
				if err != nil {
					h.log.Error("allocate room code", zap.Error(err))
					msg.Reply <- nil
					break
				}
				r := room.New(h.ctx, code, msg.Kind, h.cfg, h.deps)
				h.rooms[code] = r
				h.log.Info("room created", zap.String("room", code), zap.String("kind", string(msg.Kind)))
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case RemoveRoom:
				if h.rooms[msg.Code] == msg.Room {
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				for _, r := range h.rooms {
					r.Send(room.Shutdown{})
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) allocate() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := h.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
		h.log.Debug("collision on code, regenerating", zap.String("room", code))
	}
	return "", ErrNoCode
}

func GenerateCode() (string, error) {
	charset := types.CodeAlphabet

	code := make([]byte, types.CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
