package room

import (
	"math/rand"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/bingo"
	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

type bingoRules struct {
	g *bingo.Game
}

func newBingoRules(rng *rand.Rand) *bingoRules {
	return &bingoRules{g: bingo.NewGame(rng)}
}

// seed applies a ledger entry. Out-of-range settings fall back to defaults.
func (b *bingoRules) seed(e stats.Entry) {
	_ = b.g.Configure(e.WinLines, 0)
	_ = b.g.Configure(0, e.NumberRange)
	b.g.Records = e.Players.Clone()
}

func (b *bingoRules) members() []Member {
	out := make([]Member, 0, len(b.g.Order))
	for _, id := range b.g.Order {
		p := b.g.Players[id]
		out = append(out, Member{ID: id, Name: p.Name, Connected: p.Connected})
	}
	return out
}

func (b *bingoRules) add(id, name, _ string) { b.g.AddPlayer(id, name) }

func (b *bingoRules) remove(r *Room, id string) {
	b.g.RemovePlayer(id)
	// indices shift on removal even when the holder stays the same
	if b.g.Status == bingo.StatusPlaying {
		r.broadcast(wire.EvtTurnUpdated, wire.TurnUpdate{CurrentTurn: b.g.CurrentTurn})
	}
}

func (b *bingoRules) setConnected(r *Room, id string, connected bool) {
	if b.g.SetConnected(id, connected) && b.g.Status == bingo.StatusPlaying {
		r.broadcast(wire.EvtTurnUpdated, wire.TurnUpdate{CurrentTurn: b.g.CurrentTurn})
	}
}

func (b *bingoRules) joinable() bool { return b.g.Status == bingo.StatusWaiting }

func (b *bingoRules) configure(m types.ClientMessage) error {
	return b.g.Configure(m.WinLines, m.NumberRange)
}

func (b *bingoRules) handle(r *Room, a Action) error {
	g := b.g
	switch a.Msg.Type {
	case wire.CmdUpdateConfig:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		if err := g.Configure(a.Msg.WinLines, a.Msg.NumberRange); err != nil {
			return err
		}
		b.roster(r)

	case wire.CmdStartGame:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		if err := g.Start(); err != nil {
			return err
		}
		turnOrder := g.TurnNames()
		for i, id := range g.TurnOrder {
			r.send(id, wire.EvtGameStarted, wire.BingoGameStarted{
				Board:       g.Players[id].Board.Rows(),
				TurnOrder:   turnOrder,
				MyTurnIndex: i,
				CurrentTurn: g.CurrentTurn,
				WinLines:    g.WinLines,
				NumberRange: g.NumberRange,
			})
		}
		b.roster(r)
		r.log.Info("bingo started", zap.Strings("turnOrder", turnOrder))

	case wire.CmdCallNumber:
		if a.Msg.Number == nil {
			return types.ErrMissingNumber
		}
		res, err := g.Call(a.PlayerID, *a.Msg.Number)
		if err != nil {
			return err
		}
		b.announceCall(r, res)
		if res.Winner != "" {
			r.log.Info("bingo won", zap.String("winner", res.Winner), zap.Int("calls", len(g.Called)))
			b.persist(r)
			b.roster(r)
		}

	case wire.CmdNewGame:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		g.Reset()
		r.broadcast(wire.EvtGameReset, nil)
		b.roster(r)

	default:
		return types.ErrUnknownType
	}
	return nil
}

func (b *bingoRules) announceCall(r *Room, res bingo.CallResult) {
	g := b.g
	var winner *wire.Winner
	var rankings []wire.Standing
	if res.Winner != "" {
		w := g.Players[res.Winner]
		winner = &wire.Winner{Name: w.Name, Lines: w.Lines}
		rankings = b.rankings()
	}
	caller := ""
	if p := g.Players[res.Caller]; p != nil {
		caller = p.Name
	}
	for _, m := range b.members() {
		if !m.Connected {
			continue
		}
		p := g.Players[m.ID]
		msg := wire.NumberCalled{
			Number:        res.Number,
			CallerName:    caller,
			CalledNumbers: slices.Clone(g.Called),
			MyBingoLines:  p.Lines,
			CurrentTurn:   g.CurrentTurn,
			PlayerStates:  b.lineCounts(m.ID),
			Winner:        winner,
			Rankings:      rankings,
		}
		if p.Marked != nil {
			msg.MyMarked = p.Marked.Rows()
		}
		r.send(m.ID, wire.EvtNumberCalled, msg)
	}
}

func (b *bingoRules) restore(r *Room, id string) {
	g := b.g
	p := g.Players[id]
	if g.Status == bingo.StatusWaiting {
		r.send(id, wire.EvtRoomJoined, wire.RoomRef{Code: r.Code, PlayerName: p.Name})
		return
	}
	msg := wire.BingoRestore{
		Code:          r.Code,
		PlayerName:    p.Name,
		Status:        string(g.Status),
		MyBingoLines:  p.Lines,
		TurnOrder:     g.TurnNames(),
		MyTurnIndex:   g.TurnIndexOf(id),
		CurrentTurn:   g.CurrentTurn,
		CalledNumbers: slices.Clone(g.Called),
		PlayerStates:  b.lineCounts(id),
	}
	if p.Board != nil {
		msg.Board = p.Board.Rows()
		msg.Marked = p.Marked.Rows()
	}
	if g.Winner != "" {
		w := g.Players[g.Winner]
		if w != nil {
			msg.Winner = &wire.Winner{Name: w.Name, Lines: w.Lines}
		}
		msg.Rankings = b.rankings()
	}
	r.send(id, wire.EvtRoomRejoined, msg)
}

func (b *bingoRules) roster(r *Room) {
	g := b.g
	list := wire.BingoPlayerList{
		Code:        r.Code,
		Status:      string(g.Status),
		WinLines:    g.WinLines,
		NumberRange: g.NumberRange,
		Rankings:    b.rankings(),
	}
	for _, m := range b.members() {
		list.Players = append(list.Players, wire.RosterEntry{Name: m.Name, IsHost: m.ID == r.host, Connected: m.Connected})
	}
	r.broadcast(wire.EvtPlayerList, list)
}

func (b *bingoRules) lineCounts(me string) []wire.LineCount {
	out := make([]wire.LineCount, 0, len(b.g.TurnOrder))
	for _, id := range b.g.TurnOrder {
		p := b.g.Players[id]
		if p == nil {
			continue
		}
		out = append(out, wire.LineCount{Name: p.Name, BingoLines: p.Lines, IsMe: id == me})
	}
	return out
}

func (b *bingoRules) rankings() []wire.Standing {
	ranking := b.g.Records.Ranking()
	out := make([]wire.Standing, len(ranking))
	for i, s := range ranking {
		out[i] = wire.Standing{
			Name:          s.Name,
			Wins:          s.Wins,
			Losses:        s.Losses,
			CurrentStreak: s.CurrentStreak,
			MaxStreak:     s.MaxStreak,
		}
	}
	return out
}

func (b *bingoRules) tick(*Room) {}

// persist queues the ledger entry. Rooms without history are not written.
func (b *bingoRules) persist(r *Room) {
	if r.deps.Ledger == nil || len(b.g.Records) == 0 {
		return
	}
	r.deps.Ledger.Save(r.Code, stats.Entry{
		WinLines:     b.g.WinLines,
		NumberRange:  b.g.NumberRange,
		Players:      b.g.Records,
		LastActivity: r.cfg.Now().UnixMilli(),
	})
}

func (b *bingoRules) status() string { return string(b.g.Status) }

func (b *bingoRules) records() stats.Records { return b.g.Records.Clone() }
