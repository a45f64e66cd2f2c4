package room

import (
	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

// rules is the game-kind half of a room. Membership, host, timers and fan-out live on
// Room; everything that depends on which game is being played lives behind rules.
type rules interface {
	members() []Member
	add(id, name, emoji string)
	remove(r *Room, id string)
	setConnected(r *Room, id string, connected bool)
	joinable() bool
	configure(m types.ClientMessage) error
	handle(r *Room, a Action) error
	restore(r *Room, id string)
	roster(r *Room)
	tick(r *Room)
	persist(r *Room)
	status() string
	records() stats.Records
}

type events struct {
	created    string
	joined     string
	rejoined   string
	playerList string
	closed     string

	// empty when the kind has no such event
	reconnected  string
	disconnected string
	left         string
}

var bingoEvents = events{
	created:      wire.EvtRoomCreated,
	joined:       wire.EvtRoomJoined,
	rejoined:     wire.EvtRoomRejoined,
	playerList:   wire.EvtPlayerList,
	closed:       wire.EvtRoomClosed,
	reconnected:  wire.EvtPlayerReconnected,
	disconnected: wire.EvtPlayerDisconnected,
	left:         wire.EvtPlayerLeft,
}

var quizEvents = events{
	created:    wire.EvtQuizRoomCreated,
	joined:     wire.EvtQuizRoomJoined,
	rejoined:   wire.EvtQuizRoomRejoined,
	playerList: wire.EvtQuizPlayerList,
	closed:     wire.EvtQuizRoomClosed,
}
