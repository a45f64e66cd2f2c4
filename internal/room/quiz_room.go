package room

import (
	"errors"
	"math/rand"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/quiz"
	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

type quizRules struct {
	g         *quiz.Game
	countdown int
}

func newQuizRules(rng *rand.Rand) *quizRules {
	return &quizRules{g: quiz.NewGame(rng)}
}

func (q *quizRules) members() []Member {
	out := make([]Member, 0, len(q.g.Order))
	for _, id := range q.g.Order {
		p := q.g.Players[id]
		out = append(out, Member{ID: id, Name: p.Name, Connected: p.Connected})
	}
	return out
}

func (q *quizRules) add(id, name, emoji string) { q.g.AddPlayer(id, name, emoji) }

func (q *quizRules) remove(r *Room, id string) {
	if q.g.RemovePlayer(id) {
		q.resolve(r)
	}
}

func (q *quizRules) setConnected(r *Room, id string, connected bool) {
	if q.g.SetConnected(id, connected) {
		q.resolve(r)
	}
}

func (q *quizRules) joinable() bool { return q.g.Status == quiz.StatusWaiting }

func (q *quizRules) configure(m types.ClientMessage) error {
	return q.g.Configure(quiz.Difficulty(m.Difficulty), m.TotalRounds)
}

func (q *quizRules) handle(r *Room, a Action) error {
	g := q.g
	switch a.Msg.Type {
	case wire.CmdQuizUpdateConfig:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		if err := q.configure(a.Msg); err != nil {
			return err
		}
		q.roster(r)

	case wire.CmdQuizStartGame:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		if err := g.BeginCountdown(); err != nil {
			return err
		}
		q.roster(r)
		q.countdown = quiz.CountdownFrom
		r.broadcast(wire.EvtQuizCountdown, wire.Countdown{Count: q.countdown})
		r.stopTimer()
		r.armTick()
		r.log.Info("quiz countdown", zap.String("difficulty", string(g.Difficulty)), zap.Int("rounds", g.TotalRounds))

	case wire.CmdQuizSubmitAnswer:
		if a.Msg.Choice == nil {
			return types.ErrMissingChoice
		}
		ready, err := g.Submit(a.PlayerID, *a.Msg.Choice, a.At)
		if errors.Is(err, quiz.ErrAlreadyAnswered) {
			return nil
		}
		if err != nil {
			return err
		}
		if ready {
			q.resolve(r)
		}

	case wire.CmdQuizNextRound:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		finished, err := g.Advance()
		if err != nil {
			return err
		}
		if finished {
			q.finish(r)
			break
		}
		r.broadcast(wire.EvtQuizNextProblem, q.round())

	case wire.CmdQuizResetGame:
		if err := r.requireHost(a.PlayerID); err != nil {
			return err
		}
		r.stopTimer()
		g.Reset()
		r.broadcast(wire.EvtQuizGameReset, nil)
		q.roster(r)

	default:
		return types.ErrUnknownType
	}
	return nil
}

// tick advances the countdown one step; the last step issues the first problem.
func (q *quizRules) tick(r *Room) {
	if q.g.Status != quiz.StatusCountdown {
		return
	}
	q.countdown--
	if q.countdown > 0 {
		r.broadcast(wire.EvtQuizCountdown, wire.Countdown{Count: q.countdown})
		r.armTick()
		return
	}
	if err := q.g.StartFirstRound(); err != nil {
		r.log.Warn("start first round", zap.Error(err))
		return
	}
	r.broadcast(wire.EvtQuizGameStarted, q.round())
	q.roster(r)
}

func (q *quizRules) resolve(r *Room) {
	g := q.g
	res := g.Resolve()
	out := wire.QuizRoundResult{
		Round:         g.CurrentRound,
		TotalRounds:   g.TotalRounds,
		CorrectAnswer: g.Problem.Answer,
		Players:       q.entries(r),
		IsLastRound:   g.IsLastRound(),
		Answers:       make([]wire.QuizAnswer, 0, len(res.Answers)),
	}
	if res.Winner != "" {
		w := q.entry(r, res.Winner)
		out.Winner = &w
	}
	for _, id := range res.Answers {
		ans := g.Answers[id]
		out.Answers = append(out.Answers, wire.QuizAnswer{Name: g.Players[id].Name, Choice: ans.Choice, Correct: ans.Correct})
	}
	r.broadcast(wire.EvtQuizRoundResult, out)
	r.log.Debug("round resolved", zap.Int("round", g.CurrentRound), zap.String("winner", res.Winner))
}

// finish sends standings one member at a time so each learns whether they host.
func (q *quizRules) finish(r *Room) {
	standings := q.standings()
	for _, m := range q.members() {
		if m.Connected {
			r.send(m.ID, wire.EvtQuizGameFinished, wire.QuizFinished{Standings: standings, IsHost: m.ID == r.host})
		}
	}
	q.roster(r)
}

func (q *quizRules) restore(r *Room, id string) {
	g := q.g
	msg := wire.QuizRestore{
		Code:        r.Code,
		PlayerName:  g.Players[id].Name,
		Status:      string(g.Status),
		IsHost:      id == r.host,
		Difficulty:  string(g.Difficulty),
		TotalRounds: g.TotalRounds,
		Players:     q.entries(r),
	}
	switch g.Status {
	case quiz.StatusPlaying, quiz.StatusRoundResult:
		msg.Round = g.CurrentRound
		if g.Problem != nil {
			p := problem(g.Problem)
			msg.Problem = &p
		}
		if ans, ok := g.Answers[id]; ok {
			msg.MyAnswer = &wire.QuizAnswer{Name: msg.PlayerName, Choice: ans.Choice, Correct: ans.Correct}
		}
		if g.RoundWinner != "" {
			w := q.entry(r, g.RoundWinner)
			msg.RoundWinner = &w
		}
	case quiz.StatusFinished:
		msg.Standings = q.standings()
	}
	r.send(id, wire.EvtQuizRoomRejoined, msg)
}

func (q *quizRules) roster(r *Room) {
	r.broadcast(wire.EvtQuizPlayerList, wire.QuizPlayerList{
		Code:        r.Code,
		Status:      string(q.g.Status),
		Difficulty:  string(q.g.Difficulty),
		TotalRounds: q.g.TotalRounds,
		Players:     q.entries(r),
	})
}

func (q *quizRules) entries(r *Room) []wire.QuizRosterEntry {
	out := make([]wire.QuizRosterEntry, 0, len(q.g.Order))
	for _, id := range q.g.Order {
		out = append(out, q.entry(r, id))
	}
	return out
}

func (q *quizRules) entry(r *Room, id string) wire.QuizRosterEntry {
	p := q.g.Players[id]
	if p == nil {
		return wire.QuizRosterEntry{}
	}
	return wire.QuizRosterEntry{Name: p.Name, Emoji: p.Emoji, Score: p.Score, IsHost: id == r.host, Connected: p.Connected}
}

func (q *quizRules) standings() []wire.QuizStanding {
	st := q.g.Standings()
	out := make([]wire.QuizStanding, len(st))
	for i, s := range st {
		out[i] = wire.QuizStanding{Rank: s.Rank, Name: s.Name, Emoji: s.Emoji, Score: s.Score}
	}
	return out
}

func (q *quizRules) round() wire.QuizRound {
	return wire.QuizRound{Round: q.g.CurrentRound, TotalRounds: q.g.TotalRounds, Problem: problem(q.g.Problem)}
}

func problem(p *quiz.Problem) wire.Problem {
	return wire.Problem{A: p.A, B: p.B, Operator: string(p.Op), Choices: slices.Clone(p.Choices)}
}

func (q *quizRules) persist(*Room) {}

func (q *quizRules) status() string { return string(q.g.Status) }

func (q *quizRules) records() stats.Records { return nil }
