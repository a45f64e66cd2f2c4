// Package session turns decoded client frames into room messages. It resolves the
// acting identity, finds the room through the hub and keeps the identity registry's
// room binding consistent as players create, join and leave rooms.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/identity"
	"github.com/DoyleJ11/partyroom-backend/internal/room"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

var ErrSessionReplaced = errors.New("session replaced")
var ErrNotInRoom = errors.New("you are not in a room")

type Rooms interface {
	Create(ctx context.Context, kind room.Kind) (*room.Room, error)
	Get(ctx context.Context, code string) *room.Room
}

type Lobby interface {
	Message() types.ServerMessage
}

type Coordinator struct {
	reg   *identity.Registry
	rooms Rooms
	lobby Lobby
	log   *zap.Logger
	now   func() time.Time
}

func New(reg *identity.Registry, rooms Rooms, lobby Lobby, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{reg: reg, rooms: rooms, lobby: lobby, log: log.Named("session"), now: time.Now}
}

// Connect binds h as the player's live connection. An older connection for the same
// player is told it was replaced and closed.
func (c *Coordinator) Connect(h *identity.Handle) {
	if prev := c.reg.Bind(h); prev != nil {
		prev.Deliver(types.ErrorEvent(false, ErrSessionReplaced))
		prev.Close()
		c.log.Info("session replaced", zap.String("player", h.PlayerID))
	}
	h.Deliver(types.ServerMessage{Type: wire.EvtWelcome, Data: wire.Welcome{PlayerID: h.PlayerID}})
	if c.lobby != nil {
		h.Deliver(c.lobby.Message())
	}
}

// Disconnect runs when h's transport closes. Nothing happens if a newer connection
// already took over.
func (c *Coordinator) Disconnect(ctx context.Context, h *identity.Handle) {
	if !c.reg.Release(h) {
		return
	}
	code := c.reg.RoomOf(h.PlayerID)
	if code == "" {
		return
	}
	if r := c.rooms.Get(ctx, code); r != nil {
		r.Send(room.Disconnect{PlayerID: h.PlayerID, HandleID: h.ID})
	}
}

// Receive decodes one raw frame and dispatches it.
func (c *Coordinator) Receive(ctx context.Context, h *identity.Handle, data []byte) {
	msg, err := types.Decode(data)
	if err != nil {
		h.Deliver(types.ErrorEvent(msg.IsQuiz(), err))
		return
	}
	c.Dispatch(ctx, h, msg, c.now())
}

func (c *Coordinator) Dispatch(ctx context.Context, h *identity.Handle, msg types.ClientMessage, at time.Time) {
	quiz := msg.IsQuiz()
	if !c.reg.IsCurrent(h) {
		h.Deliver(types.ErrorEvent(quiz, ErrSessionReplaced))
		return
	}
	pid := h.PlayerID
	kind := room.KindBingo
	if quiz {
		kind = room.KindQuiz
	}
	fail := func(err error) { h.Deliver(types.ErrorEvent(quiz, err)) }

	switch msg.Type {
	case wire.CmdCreateRoom, wire.CmdQuizCreateRoom:
		c.leaveCurrent(ctx, pid, "")
		r, err := c.rooms.Create(ctx, kind)
		if err != nil {
			c.log.Error("create room", zap.Error(err))
			fail(err)
			return
		}
		if !r.Send(room.Join{PlayerID: pid, Msg: msg, Create: true}) {
			fail(room.ErrNotFound)
		}

	case wire.CmdJoinRoom, wire.CmdQuizJoinRoom:
		r := c.lookup(ctx, msg.Code, kind)
		if r == nil {
			fail(room.ErrNotFound)
			return
		}
		c.leaveCurrent(ctx, pid, msg.Code)
		if !r.Send(room.Join{PlayerID: pid, Msg: msg}) {
			fail(room.ErrNotFound)
		}

	case wire.CmdRejoinRoom, wire.CmdQuizRejoinRoom:
		r := c.lookup(ctx, msg.Code, kind)
		if r != nil {
			c.leaveCurrent(ctx, pid, msg.Code)
		}
		if r == nil || !r.Send(room.Rejoin{PlayerID: pid}) {
			c.reg.ClearRoom(pid, msg.Code)
			fail(room.ErrNotFound)
		}

	case wire.CmdLeaveRoom, wire.CmdQuizLeaveRoom:
		c.leaveCurrent(ctx, pid, "")

	default:
		code := c.reg.RoomOf(pid)
		if code == "" {
			fail(ErrNotInRoom)
			return
		}
		r := c.lookup(ctx, code, kind)
		if r == nil {
			fail(ErrNotInRoom)
			return
		}
		if !r.Send(room.Action{PlayerID: pid, HandleID: h.ID, Msg: msg, At: at}) {
			c.reg.ClearRoom(pid, code)
			fail(room.ErrNotFound)
		}
	}
}

func (c *Coordinator) lookup(ctx context.Context, code string, kind room.Kind) *room.Room {
	r := c.rooms.Get(ctx, code)
	if r == nil || r.Kind != kind {
		return nil
	}
	return r
}

// leaveCurrent takes pid out of whatever room it is bound to, unless that room is keep.
func (c *Coordinator) leaveCurrent(ctx context.Context, pid, keep string) {
	code := c.reg.RoomOf(pid)
	if code == "" || code == keep {
		return
	}
	if r := c.rooms.Get(ctx, code); r != nil {
		r.Send(room.Leave{PlayerID: pid})
	}
	c.reg.ClearRoom(pid, code)
}
