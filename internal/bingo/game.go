// Package bingo implements the line-elimination game: boards, marking, line counting,
// turn rotation and win detection. It does no I/O; the room actor owns a Game and
// serialises every call into it.
package bingo

import (
	"errors"
	"math/rand"
	"slices"

	"github.com/DoyleJ11/partyroom-backend/internal/stats"
)

var ErrGameNotActive = errors.New("the game has not started")
var ErrHasWinner = errors.New("the game already has a winner")
var ErrAlreadyCalled = errors.New("that number was already called")
var ErrNotYourTurn = errors.New("it is not your turn yet")
var ErrOutOfRange = errors.New("that number is not on any board")
var ErrAlreadyStarted = errors.New("the game has already started")
var ErrNotEnoughPlayers = errors.New("at least 2 connected players are needed")
var ErrInvalidWinLines = errors.New("win lines must be between 2 and 5")
var ErrInvalidNumberRange = errors.New("number range must be 25, 50 or 75")

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	DefaultWinLines    = 3
	DefaultNumberRange = 25
	MinWinLines        = 2
	MaxWinLines        = 5
	MinPlayers         = 2
)

var NumberRanges = []int{25, 50, 75}

type Player struct {
	ID        string
	Name      string
	Board     *Board
	Marked    *Marks
	Lines     int
	Connected bool
}

type Game struct {
	Status      Status
	Players     map[string]*Player
	Order       []string // join order
	Called      []int
	Remaining   map[int]struct{}
	TurnOrder   []string
	CurrentTurn int
	Winner      string
	WinLines    int
	NumberRange int
	Records     stats.Records

	rng *rand.Rand
}

type CallResult struct {
	Number int
	Caller string
	Winner string
}

func NewGame(rng *rand.Rand) *Game {
	return &Game{
		Status:      StatusWaiting,
		Players:     make(map[string]*Player),
		WinLines:    DefaultWinLines,
		NumberRange: DefaultNumberRange,
		Records:     stats.Records{},
		rng:         rng,
	}
}

// Configure changes the rules for the next game. Zero values keep the current setting.
func (g *Game) Configure(winLines, numberRange int) error {
	if g.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if winLines != 0 && (winLines < MinWinLines || winLines > MaxWinLines) {
		return ErrInvalidWinLines
	}
	if numberRange != 0 && !slices.Contains(NumberRanges, numberRange) {
		return ErrInvalidNumberRange
	}
	if winLines != 0 {
		g.WinLines = winLines
	}
	if numberRange != 0 {
		g.NumberRange = numberRange
	}
	return nil
}

func (g *Game) AddPlayer(id, name string) *Player {
	if p, ok := g.Players[id]; ok {
		return p
	}
	p := &Player{ID: id, Name: name, Connected: true}
	g.Players[id] = p
	g.Order = append(g.Order, id)
	return p
}

// RemovePlayer drops a player for good, including their turn-order slot. It reports
// whether the current turn moved to someone else.
func (g *Game) RemovePlayer(id string) bool {
	if _, ok := g.Players[id]; !ok {
		return false
	}
	before := g.CurrentPlayerID()
	delete(g.Players, id)
	g.Order = slices.DeleteFunc(g.Order, func(o string) bool { return o == id })
	g.removeFromTurnOrder(id)
	g.settleTurn()
	return g.Status == StatusPlaying && g.CurrentPlayerID() != before
}

// SetConnected flips a player's connection flag. Disconnect keeps the turn-order slot;
// the turn only moves if the current holder can no longer act. Reports whether it moved.
func (g *Game) SetConnected(id string, connected bool) bool {
	p, ok := g.Players[id]
	if !ok {
		return false
	}
	p.Connected = connected
	if g.Winner != "" {
		return false
	}
	return g.settleTurn()
}

func (g *Game) Player(id string) *Player { return g.Players[id] }

func (g *Game) ConnectedCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (g *Game) Start() error {
	if g.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	var order []string
	for _, id := range g.Order {
		if g.Players[id].Connected {
			order = append(order, id)
		}
	}
	if len(order) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	g.TurnOrder = order
	g.CurrentTurn = 0
	g.Winner = ""
	g.Called = []int{}
	g.Remaining = make(map[int]struct{}, g.NumberRange)
	for n := 1; n <= g.NumberRange; n++ {
		g.Remaining[n] = struct{}{}
	}
	for _, id := range order {
		p := g.Players[id]
		b := GenerateBoard(g.rng, g.NumberRange)
		p.Board = &b
		p.Marked = &Marks{}
		p.Lines = 0
	}
	g.Status = StatusPlaying
	return nil
}

// Call applies one number call from the player holding the current turn.
func (g *Game) Call(id string, n int) (CallResult, error) {
	if g.Winner != "" {
		return CallResult{}, ErrHasWinner
	}
	if g.Status != StatusPlaying {
		return CallResult{}, ErrGameNotActive
	}
	if n < 1 || n > g.NumberRange {
		return CallResult{}, ErrOutOfRange
	}
	if _, ok := g.Remaining[n]; !ok {
		return CallResult{}, ErrAlreadyCalled
	}
	if g.CurrentPlayerID() != id {
		return CallResult{}, ErrNotYourTurn
	}

	g.Called = append(g.Called, n)
	delete(g.Remaining, n)
	for _, pid := range g.Order {
		p := g.Players[pid]
		if p.Board == nil {
			continue
		}
		p.Board.Mark(p.Marked, n)
		p.Lines = p.Marked.Lines()
	}

	res := CallResult{Number: n, Caller: id}
	if winner := g.findWinner(); winner != "" {
		g.Winner = winner
		g.Status = StatusFinished
		g.Records.Settle(g.Players[winner].Name, g.participants())
		res.Winner = winner
		return res, nil
	}

	g.CurrentTurn = g.nextTurn(g.CurrentTurn)
	return res, nil
}

// findWinner picks the player at or over the threshold with the most lines; ties go to
// whoever joined the room first.
func (g *Game) findWinner() string {
	best, bestLines := "", 0
	for _, id := range g.Order {
		p := g.Players[id]
		if p.Board == nil || p.Lines < g.WinLines {
			continue
		}
		if p.Lines > bestLines {
			best, bestLines = id, p.Lines
		}
	}
	return best
}

func (g *Game) participants() []string {
	var names []string
	for _, id := range g.Order {
		if p := g.Players[id]; p.Board != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// Reset returns the room to waiting, keeping players, rules and records.
func (g *Game) Reset() {
	g.Status = StatusWaiting
	g.Called = nil
	g.Remaining = nil
	g.TurnOrder = nil
	g.CurrentTurn = 0
	g.Winner = ""
	for _, p := range g.Players {
		p.Board = nil
		p.Marked = nil
		p.Lines = 0
	}
}

func (g *Game) CurrentPlayerID() string {
	if len(g.TurnOrder) == 0 {
		return ""
	}
	return g.TurnOrder[g.CurrentTurn]
}

func (g *Game) TurnIndexOf(id string) int {
	return slices.Index(g.TurnOrder, id)
}

func (g *Game) TurnNames() []string {
	names := make([]string, len(g.TurnOrder))
	for i, id := range g.TurnOrder {
		if p := g.Players[id]; p != nil {
			names[i] = p.Name
		}
	}
	return names
}
