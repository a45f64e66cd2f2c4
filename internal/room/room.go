// Package room runs one goroutine per live room. Every join, action, disconnect and
// timer fire for a room is a message on its inbox, so game state is only ever touched
// from that goroutine.
package room

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

type Kind string

const (
	KindBingo Kind = "bingo"
	KindQuiz  Kind = "quiz"
)

var ErrNotHost = errors.New("only the host can do that")
var ErrNotMember = errors.New("you are not in this room")
var ErrRoomFull = errors.New("room is full")
var ErrGameInProgress = errors.New("game already in progress")
var ErrNameTaken = errors.New("that name is already taken in this room")
var ErrNotFound = errors.New("room not found")

type Msg interface{ isRoomMsg() }

// Join adds a player. Create marks the join that founds the room; its message carries
// the initial settings.
type Join struct {
	PlayerID string
	Msg      types.ClientMessage
	Create   bool
}

func (Join) isRoomMsg() {}

type Rejoin struct{ PlayerID string }

func (Rejoin) isRoomMsg() {}

// Action is any in-room command. At is when the transport received it; HandleID names
// the connection it came in on.
type Action struct {
	PlayerID string
	HandleID string
	Msg      types.ClientMessage
	At       time.Time
}

func (Action) isRoomMsg() {}

// Disconnect reports that the connection HandleID closed. It is dropped when the player
// has since bound a different connection.
type Disconnect struct {
	PlayerID string
	HandleID string
}

func (Disconnect) isRoomMsg() {}

type Leave struct{ PlayerID string }

func (Leave) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type tick struct{ gen int }

func (tick) isRoomMsg() {}

type graceExpired struct{ gen int }

func (graceExpired) isRoomMsg() {}

// Sender addresses players by identity; the room never holds connections.
type Sender interface {
	Send(playerID string, msg types.ServerMessage) bool
	SetRoom(playerID, code string)
	ClearRoom(playerID, code string)
	// HandleOf returns the id of the player's live connection, or "" if none is bound.
	HandleOf(playerID string) string
}

type Ledger interface {
	Save(code string, e stats.Entry)
}

// Listing receives the room's public lobby entry whenever it may have changed.
type Listing interface {
	Publish(kind Kind, l wire.RoomListing)
	Remove(code string)
}

type Deps struct {
	Sender  Sender
	Ledger  Ledger
	Listing Listing
	// OnClose runs on the room goroutine once the room has shut down.
	OnClose func(code string, r *Room)
	Log     *zap.Logger
}

type Config struct {
	MaxPlayers    int
	EmptyGrace    time.Duration
	CountdownTick time.Duration
	Now           func() time.Time
	NewRand       func() *rand.Rand
}

func (c Config) withDefaults() Config {
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 4
	}
	if c.EmptyGrace == 0 {
		c.EmptyGrace = 15 * time.Second
	}
	if c.CountdownTick == 0 {
		c.CountdownTick = time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewRand == nil {
		c.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	return c
}

type Member struct {
	ID        string
	Name      string
	Connected bool
}

// View is a copy of the room's public state, safe to read off the room goroutine.
type View struct {
	Code    string
	Kind    Kind
	Host    string
	Status  string
	Members []Member
	Records stats.Records
}

type Room struct {
	Code string
	Kind Kind

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc

	cfg  Config
	deps Deps
	log  *zap.Logger
	ev   events

	rules    rules
	host     string
	closed   bool
	graceGen int
	timerGen int
}

func New(parent context.Context, code string, kind Kind, cfg Config, deps Deps) *Room {
	r := newRoom(parent, code, kind, cfg, deps)
	go r.loop()
	return r
}

// Restore brings back a bingo room from its ledger entry: settings and records only,
// with no host and no members.
func Restore(parent context.Context, code string, e stats.Entry, cfg Config, deps Deps) *Room {
	r := newRoom(parent, code, KindBingo, cfg, deps)
	r.rules.(*bingoRules).seed(e)
	go r.loop()
	return r
}

func newRoom(parent context.Context, code string, kind Kind, cfg Config, deps Deps) *Room {
	ctx, cancel := context.WithCancel(parent)
	cfg = cfg.withDefaults()
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	r := &Room{
		Code:   code,
		Kind:   kind,
		inbox:  make(chan Msg, 64),
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		deps:   deps,
		log:    deps.Log.Named("room").With(zap.String("room", code), zap.String("kind", string(kind))),
	}
	switch kind {
	case KindQuiz:
		r.rules = newQuizRules(cfg.NewRand())
		r.ev = quizEvents
	default:
		r.rules = newBingoRules(cfg.NewRand())
		r.ev = bingoEvents
	}
	return r
}

// Send queues m for the room. It reports false once the room has shut down.
func (r *Room) Send(m Msg) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

// State asks the room goroutine for a View.
func (r *Room) State(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !r.Send(GetState{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return View{}, false
	case <-r.ctx.Done():
		return View{}, false
	}
}

func (r *Room) loop() {
	defer r.drain()
	for {
		select {
		case <-r.ctx.Done():
			r.teardown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)
			case Rejoin:
				r.rejoin(msg.PlayerID)
			case Action:
				r.action(msg)
			case Disconnect:
				r.disconnect(msg)
			case Leave:
				r.leave(msg.PlayerID)
			case GetState:
				msg.Reply <- r.view()
			case tick:
				if msg.gen == r.timerGen {
					r.rules.tick(r)
				}
			case graceExpired:
				if msg.gen == r.graceGen && r.connectedCount() == 0 {
					r.log.Info("empty room expired")
					r.shutdown()
				}
			case Shutdown:
				r.shutdown()
			}
			if r.closed {
				return
			}
		}
	}
}

func (r *Room) join(msg Join) {
	id := msg.PlayerID
	if r.isMember(id) {
		r.rejoin(id)
		return
	}
	if msg.Create {
		if err := r.rules.configure(msg.Msg); err != nil {
			r.fail(id, err)
			if len(r.rules.members()) == 0 {
				r.shutdown()
			}
			return
		}
	}
	if !r.rules.joinable() {
		r.fail(id, ErrGameInProgress)
		return
	}
	members := r.rules.members()
	if len(members) >= r.cfg.MaxPlayers {
		r.fail(id, ErrRoomFull)
		return
	}
	for _, m := range members {
		if m.Name == msg.Msg.Name {
			r.fail(id, ErrNameTaken)
			return
		}
	}

	r.rules.add(id, msg.Msg.Name, msg.Msg.Emoji)
	if r.host == "" || !r.isConnected(r.host) {
		r.host = id
	}
	r.deps.Sender.SetRoom(id, r.Code)
	r.cancelGrace()

	evt := r.ev.joined
	if msg.Create {
		evt = r.ev.created
	}
	r.send(id, evt, wire.RoomRef{Code: r.Code, PlayerName: msg.Msg.Name})
	r.rules.roster(r)
	r.publish()
	r.log.Info("player joined", zap.String("player", id), zap.Bool("create", msg.Create))
}

func (r *Room) rejoin(id string) {
	if !r.isMember(id) {
		r.deps.Sender.ClearRoom(id, r.Code)
		r.fail(id, ErrNotMember)
		return
	}
	r.deps.Sender.SetRoom(id, r.Code)
	r.cancelGrace()
	r.rules.setConnected(r, id, true)
	if r.host == "" || !r.isConnected(r.host) {
		r.host = id
	}
	r.rules.restore(r, id)
	if r.ev.reconnected != "" {
		r.broadcastExcept(id, r.ev.reconnected, wire.PlayerName{Name: r.nameOf(id)})
	}
	r.rules.roster(r)
	r.publish()
	r.log.Info("player rejoined", zap.String("player", id))
}

func (r *Room) action(a Action) {
	if !r.isMember(a.PlayerID) {
		r.fail(a.PlayerID, ErrNotMember)
		return
	}
	if !r.isConnected(a.PlayerID) {
		// a fresh connection acting before rejoin-room; queued actions from a
		// connection that has since closed are dropped
		if !r.isLive(a.PlayerID, a.HandleID) {
			return
		}
		r.rejoin(a.PlayerID)
	}
	switch a.Msg.Type {
	case wire.CmdCloseRoom, wire.CmdQuizCloseRoom:
		if err := r.requireHost(a.PlayerID); err != nil {
			r.fail(a.PlayerID, err)
			return
		}
		r.closeByHost()
		return
	case wire.CmdLeaveRoom, wire.CmdQuizLeaveRoom:
		r.leave(a.PlayerID)
		return
	}
	if err := r.rules.handle(r, a); err != nil {
		r.log.Debug("action rejected", zap.String("player", a.PlayerID), zap.String("type", a.Msg.Type), zap.Error(err))
		r.fail(a.PlayerID, err)
		return
	}
	r.publish()
}

func (r *Room) disconnect(d Disconnect) {
	id := d.PlayerID
	if !r.isMember(id) || !r.isConnected(id) {
		return
	}
	if cur := r.deps.Sender.HandleOf(id); cur != "" && cur != d.HandleID {
		r.log.Debug("stale disconnect dropped", zap.String("player", id))
		return
	}
	r.rules.setConnected(r, id, false)
	if r.host == id {
		if next := pickHost(r.rules.members()); next != id && r.isConnected(next) {
			r.host = next
			r.log.Info("host reassigned", zap.String("host", next))
		}
	}
	if r.ev.disconnected != "" {
		r.broadcast(r.ev.disconnected, wire.PlayerName{Name: r.nameOf(id)})
	}
	r.rules.roster(r)
	if r.connectedCount() == 0 {
		r.armGrace()
	}
	r.publish()
	r.log.Info("player disconnected", zap.String("player", id))
}

func (r *Room) leave(id string) {
	r.deps.Sender.ClearRoom(id, r.Code)
	if !r.isMember(id) {
		return
	}
	name := r.nameOf(id)
	r.rules.remove(r, id)
	r.log.Info("player left", zap.String("player", id))

	members := r.rules.members()
	if len(members) == 0 {
		r.shutdown()
		return
	}
	if r.host == id {
		r.host = pickHost(members)
	}
	if r.ev.left != "" {
		r.broadcast(r.ev.left, wire.PlayerName{Name: name})
	}
	r.rules.roster(r)
	if r.connectedCount() == 0 {
		r.armGrace()
	}
	r.publish()
}

// pickHost prefers the earliest connected member, then the earliest member.
func pickHost(members []Member) string {
	for _, m := range members {
		if m.Connected {
			return m.ID
		}
	}
	if len(members) > 0 {
		return members[0].ID
	}
	return ""
}

func (r *Room) closeByHost() {
	r.rules.persist(r)
	r.broadcast(r.ev.closed, nil)
	r.log.Info("room closed by host")
	r.shutdown()
}

func (r *Room) requireHost(id string) error {
	if id != r.host {
		return ErrNotHost
	}
	return nil
}

func (r *Room) shutdown() {
	r.teardown()
	r.cancel()
}

func (r *Room) teardown() {
	if r.closed {
		return
	}
	r.closed = true
	r.graceGen++
	r.timerGen++
	for _, m := range r.rules.members() {
		r.deps.Sender.ClearRoom(m.ID, r.Code)
	}
	if r.deps.Listing != nil {
		r.deps.Listing.Remove(r.Code)
	}
	if r.deps.OnClose != nil {
		r.deps.OnClose(r.Code, r)
	}
}

// drain answers whatever was queued behind the shutdown.
func (r *Room) drain() {
	for {
		select {
		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.fail(msg.PlayerID, ErrNotFound)
			case Rejoin:
				r.fail(msg.PlayerID, ErrNotFound)
			case Action:
				r.fail(msg.PlayerID, ErrNotFound)
			case GetState:
				msg.Reply <- r.view()
			}
		default:
			return
		}
	}
}

func (r *Room) armGrace() {
	r.graceGen++
	gen := r.graceGen
	time.AfterFunc(r.cfg.EmptyGrace, func() { r.Send(graceExpired{gen: gen}) })
}

func (r *Room) cancelGrace() { r.graceGen++ }

// armTick schedules the next countdown tick; bumping timerGen orphans it.
func (r *Room) armTick() {
	gen := r.timerGen
	time.AfterFunc(r.cfg.CountdownTick, func() { r.Send(tick{gen: gen}) })
}

func (r *Room) stopTimer() { r.timerGen++ }

func (r *Room) publish() {
	if r.deps.Listing == nil {
		return
	}
	members := r.rules.members()
	connected := r.connectedCount()
	if !r.rules.joinable() || connected == 0 || len(members) >= r.cfg.MaxPlayers || r.host == "" {
		r.deps.Listing.Remove(r.Code)
		return
	}
	r.deps.Listing.Publish(r.Kind, wire.RoomListing{
		Code:     r.Code,
		HostName: r.nameOf(r.host),
		Players:  len(members),
	})
}

func (r *Room) view() View {
	return View{
		Code:    r.Code,
		Kind:    r.Kind,
		Host:    r.host,
		Status:  r.rules.status(),
		Members: r.rules.members(),
		Records: r.rules.records(),
	}
}

func (r *Room) isMember(id string) bool {
	for _, m := range r.rules.members() {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (r *Room) nameOf(id string) string {
	for _, m := range r.rules.members() {
		if m.ID == id {
			return m.Name
		}
	}
	return ""
}

func (r *Room) isConnected(id string) bool {
	for _, m := range r.rules.members() {
		if m.ID == id {
			return m.Connected
		}
	}
	return false
}

// isLive reports whether handleID is the player's bound connection. An empty handleID
// is trusted.
func (r *Room) isLive(id, handleID string) bool {
	return handleID == "" || r.deps.Sender.HandleOf(id) == handleID
}

func (r *Room) connectedCount() int {
	n := 0
	for _, m := range r.rules.members() {
		if m.Connected {
			n++
		}
	}
	return n
}

func (r *Room) send(id, typ string, data any) {
	r.deps.Sender.Send(id, types.ServerMessage{Type: typ, Data: data})
}

// broadcast sends to every connected member.
func (r *Room) broadcast(typ string, data any) {
	r.broadcastExcept("", typ, data)
}

func (r *Room) broadcastExcept(skip, typ string, data any) {
	for _, m := range r.rules.members() {
		if m.Connected && m.ID != skip {
			r.send(m.ID, typ, data)
		}
	}
}

func (r *Room) fail(id string, err error) {
	r.deps.Sender.Send(id, types.ErrorEvent(r.Kind == KindQuiz, err))
}
