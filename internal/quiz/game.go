// Package quiz implements the round-based arithmetic quiz: problem generation, answer
// collection and first-correct-wins round resolution.
package quiz

import (
	"cmp"
	"errors"
	"math/rand"
	"slices"
	"time"
)

var ErrAlreadyStarted = errors.New("the quiz has already started")
var ErrNotEnoughPlayers = errors.New("at least 2 connected players are needed")
var ErrInvalidDifficulty = errors.New("difficulty must be easy, normal or hard")
var ErrInvalidRounds = errors.New("rounds must be 5, 10, 15 or 20")
var ErrNotPlaying = errors.New("answers are closed")
var ErrAlreadyAnswered = errors.New("already answered this round")
var ErrInvalidChoice = errors.New("that is not one of the choices")
var ErrRoundOpen = errors.New("the round is still open")
var ErrNotStarted = errors.New("the quiz has not started")
var ErrGameOver = errors.New("the quiz is over")
var ErrNotCountingDown = errors.New("the quiz is not counting down")
var ErrUnknownPlayer = errors.New("unknown player")

type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusCountdown   Status = "countdown"
	StatusPlaying     Status = "playing"
	StatusRoundResult Status = "roundResult"
	StatusFinished    Status = "finished"
)

const (
	DefaultDifficulty = Easy
	DefaultRounds     = 10
	CountdownFrom     = 3
	MinPlayers        = 2
)

var RoundOptions = []int{5, 10, 15, 20}

type Player struct {
	ID        string
	Name      string
	Emoji     string
	Score     int
	Connected bool
}

type Answer struct {
	Choice  int
	Correct bool
	At      time.Time
	seq     int
}

type Game struct {
	Status       Status
	Difficulty   Difficulty
	TotalRounds  int
	CurrentRound int
	Problem      *Problem
	Answers      map[string]Answer // current round only
	RoundWinner  string
	Players      map[string]*Player
	Order        []string

	rng *rand.Rand
	seq int
}

// Result is the outcome of one closed round.
type Result struct {
	Winner  string
	Answers []string // player ids in submission order
}

func NewGame(rng *rand.Rand) *Game {
	return &Game{
		Status:      StatusWaiting,
		Difficulty:  DefaultDifficulty,
		TotalRounds: DefaultRounds,
		Answers:     make(map[string]Answer),
		Players:     make(map[string]*Player),
		rng:         rng,
	}
}

// Configure changes the settings for the next game. Zero values keep the current setting.
func (g *Game) Configure(d Difficulty, rounds int) error {
	if g.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if d != "" && !ValidDifficulty(d) {
		return ErrInvalidDifficulty
	}
	if rounds != 0 && !slices.Contains(RoundOptions, rounds) {
		return ErrInvalidRounds
	}
	if d != "" {
		g.Difficulty = d
	}
	if rounds != 0 {
		g.TotalRounds = rounds
	}
	return nil
}

func (g *Game) AddPlayer(id, name, emoji string) *Player {
	if p, ok := g.Players[id]; ok {
		return p
	}
	p := &Player{ID: id, Name: name, Emoji: emoji, Connected: true}
	g.Players[id] = p
	g.Order = append(g.Order, id)
	return p
}

func (g *Game) Player(id string) *Player { return g.Players[id] }

// RemovePlayer drops a player and any answer they gave this round. It reports whether
// the open round can now be resolved.
func (g *Game) RemovePlayer(id string) bool {
	if _, ok := g.Players[id]; !ok {
		return false
	}
	delete(g.Players, id)
	delete(g.Answers, id)
	g.Order = slices.DeleteFunc(g.Order, func(o string) bool { return o == id })
	return g.ReadyToResolve()
}

// SetConnected flips a player's connection flag. A player who drops mid-round has their
// answer withdrawn so answers never outnumber connected players. It reports whether
// the open round can now be resolved.
func (g *Game) SetConnected(id string, connected bool) bool {
	p, ok := g.Players[id]
	if !ok {
		return false
	}
	p.Connected = connected
	if !connected && g.Status == StatusPlaying {
		delete(g.Answers, id)
	}
	return g.ReadyToResolve()
}

func (g *Game) ConnectedCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// BeginCountdown moves a waiting (or finished) room into the countdown and zeroes scores.
func (g *Game) BeginCountdown() error {
	if g.Status != StatusWaiting && g.Status != StatusFinished {
		return ErrAlreadyStarted
	}
	if g.ConnectedCount() < MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range g.Players {
		p.Score = 0
	}
	g.CurrentRound = 0
	g.Problem = nil
	g.RoundWinner = ""
	clear(g.Answers)
	g.Status = StatusCountdown
	return nil
}

// StartFirstRound ends the countdown.
func (g *Game) StartFirstRound() error {
	if g.Status != StatusCountdown {
		return ErrNotCountingDown
	}
	g.startRound()
	return nil
}

func (g *Game) startRound() {
	g.CurrentRound++
	p := NewProblem(g.rng, g.Difficulty)
	g.Problem = &p
	g.RoundWinner = ""
	clear(g.Answers)
	g.Status = StatusPlaying
}

// Advance moves from a round result to the next round, or finishes the game after the
// last round.
func (g *Game) Advance() (finished bool, err error) {
	switch g.Status {
	case StatusRoundResult:
	case StatusPlaying:
		return false, ErrRoundOpen
	case StatusFinished:
		return false, ErrGameOver
	default:
		return false, ErrNotStarted
	}
	if g.IsLastRound() {
		g.Status = StatusFinished
		return true, nil
	}
	g.startRound()
	return false, nil
}

func (g *Game) IsLastRound() bool { return g.CurrentRound >= g.TotalRounds }

// Submit records a player's single answer for the open round. It reports whether every
// connected player has now answered.
func (g *Game) Submit(id string, choice int, at time.Time) (bool, error) {
	if g.Status != StatusPlaying || g.Problem == nil {
		return false, ErrNotPlaying
	}
	p, ok := g.Players[id]
	if !ok || !p.Connected {
		return false, ErrUnknownPlayer
	}
	if _, done := g.Answers[id]; done {
		return false, ErrAlreadyAnswered
	}
	if !slices.Contains(g.Problem.Choices, choice) {
		return false, ErrInvalidChoice
	}
	g.seq++
	g.Answers[id] = Answer{Choice: choice, Correct: choice == g.Problem.Answer, At: at, seq: g.seq}
	return g.ReadyToResolve(), nil
}

// ReadyToResolve is true once every currently connected player has answered.
func (g *Game) ReadyToResolve() bool {
	if g.Status != StatusPlaying {
		return false
	}
	connected := 0
	for _, p := range g.Players {
		if !p.Connected {
			continue
		}
		connected++
		if _, ok := g.Answers[p.ID]; !ok {
			return false
		}
	}
	return connected > 0
}

// Resolve closes the round. The earliest correct submission wins a point; with no
// correct answer nobody scores.
func (g *Game) Resolve() Result {
	ids := make([]string, 0, len(g.Answers))
	for id := range g.Answers {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		x, y := g.Answers[a], g.Answers[b]
		if c := x.At.Compare(y.At); c != 0 {
			return c
		}
		return cmp.Compare(x.seq, y.seq)
	})

	res := Result{Answers: ids}
	for _, id := range ids {
		if g.Answers[id].Correct {
			res.Winner = id
			g.Players[id].Score++
			break
		}
	}
	g.RoundWinner = res.Winner
	g.Status = StatusRoundResult
	return res
}

type Standing struct {
	Rank int
	*Player
}

// Standings orders by score descending; equal scores share a rank and keep join order.
func (g *Game) Standings() []Standing {
	players := make([]*Player, 0, len(g.Order))
	for _, id := range g.Order {
		players = append(players, g.Players[id])
	}
	slices.SortStableFunc(players, func(a, b *Player) int { return b.Score - a.Score })

	out := make([]Standing, len(players))
	for i, p := range players {
		rank := i + 1
		if i > 0 && p.Score == players[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{Rank: rank, Player: p}
	}
	return out
}

// Reset returns to the waiting room, keeping players and settings.
func (g *Game) Reset() {
	g.Status = StatusWaiting
	g.CurrentRound = 0
	g.Problem = nil
	g.RoundWinner = ""
	clear(g.Answers)
	for _, p := range g.Players {
		p.Score = 0
	}
}
