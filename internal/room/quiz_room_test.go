package room

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/partyroom-backend/internal/quiz"
	"github.com/DoyleJ11/partyroom-backend/internal/types"
	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func solve(p wire.Problem) int {
	if p.Operator == string(quiz.Sub) {
		return p.A - p.B
	}
	return p.A + p.B
}

func wrong(p wire.Problem) int {
	for _, c := range p.Choices {
		if c != solve(p) {
			return c
		}
	}
	return -1
}

func (h *harness) submit(id string, choice int, at time.Time) {
	h.room.Send(Action{PlayerID: id, Msg: types.ClientMessage{Type: wire.CmdQuizSubmitAnswer, Choice: &choice}, At: at})
}

// startQuiz seats Ann (host) and Bob, runs the countdown and returns the first round.
func startQuiz(t *testing.T, h *harness) wire.QuizRound {
	t.Helper()
	h.join("p1", "Ann", true)
	h.join("p2", "Bob", false)
	h.act("p1", wire.CmdQuizStartGame)

	var counts []int
	for len(counts) < quiz.CountdownFrom {
		msg := recvType(t, h.sender.ch("p2"), wire.EvtQuizCountdown)
		counts = append(counts, msg.Data.(wire.Countdown).Count)
	}
	require.Equal(t, []int{3, 2, 1}, counts)

	round := recvType(t, h.sender.ch("p1"), wire.EvtQuizGameStarted).Data.(wire.QuizRound)
	recvType(t, h.sender.ch("p2"), wire.EvtQuizGameStarted)
	return round
}

func TestQuiz_StartNeedsTwoPlayers(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	h.join("p1", "Ann", true)
	h.act("p1", wire.CmdQuizStartGame)
	require.Equal(t, quiz.ErrNotEnoughPlayers.Error(), recvError(t, h.sender.ch("p1"), wire.EvtQuizError))
}

func TestQuiz_CountdownThenFirstProblem(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	round := startQuiz(t, h)

	require.Equal(t, 1, round.Round)
	require.Equal(t, quiz.DefaultRounds, round.TotalRounds)
	require.Len(t, round.Problem.Choices, quiz.ChoiceCount)
	require.True(t, slices.Contains(round.Problem.Choices, solve(round.Problem)))
	require.Equal(t, "playing", view(t, h.room).Status)
}

func TestQuiz_EarlierCorrectAnswerWinsRound(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	round := startQuiz(t, h)
	answer := solve(round.Problem)

	h.submit("p2", answer, t0.Add(20*time.Millisecond))
	recvNone(t, h.sender.ch("p1"), wire.EvtQuizRoundResult, 30*time.Millisecond)

	h.submit("p1", answer, t0.Add(10*time.Millisecond))
	res := recvType(t, h.sender.ch("p2"), wire.EvtQuizRoundResult).Data.(wire.QuizRoundResult)

	require.Equal(t, answer, res.CorrectAnswer)
	require.NotNil(t, res.Winner)
	require.Equal(t, "Ann", res.Winner.Name)
	require.Equal(t, 1, res.Winner.Score)
	require.Equal(t, []wire.QuizAnswer{
		{Name: "Ann", Choice: answer, Correct: true},
		{Name: "Bob", Choice: answer, Correct: true},
	}, res.Answers)
	require.Equal(t, 0, res.Players[1].Score)
	require.False(t, res.IsLastRound)
}

func TestQuiz_SecondSubmissionIgnored(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	round := startQuiz(t, h)
	bad := wrong(round.Problem)

	h.submit("p1", bad, t0)
	h.submit("p1", solve(round.Problem), t0.Add(time.Millisecond))
	recvNone(t, h.sender.ch("p1"), wire.EvtQuizError, 30*time.Millisecond)

	h.submit("p2", bad, t0.Add(2*time.Millisecond))
	res := recvType(t, h.sender.ch("p1"), wire.EvtQuizRoundResult).Data.(wire.QuizRoundResult)
	require.Nil(t, res.Winner)
	require.Equal(t, bad, res.Answers[0].Choice)
}

func TestQuiz_InvalidChoiceRejected(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	startQuiz(t, h)
	h.submit("p1", 100000, t0)
	require.Equal(t, quiz.ErrInvalidChoice.Error(), recvError(t, h.sender.ch("p1"), wire.EvtQuizError))
}

func TestQuiz_DisconnectClosesRound(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	round := startQuiz(t, h)

	h.submit("p1", solve(round.Problem), t0)
	h.room.Send(Disconnect{PlayerID: "p2"})

	res := recvType(t, h.sender.ch("p1"), wire.EvtQuizRoundResult).Data.(wire.QuizRoundResult)
	require.Equal(t, "Ann", res.Winner.Name)
	require.Len(t, res.Answers, 1)
}

func TestQuiz_RejoinMidRound(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	round := startQuiz(t, h)

	h.room.Send(Disconnect{PlayerID: "p2"})
	h.room.Send(Rejoin{PlayerID: "p2"})

	restore := recvType(t, h.sender.ch("p2"), wire.EvtQuizRoomRejoined).Data.(wire.QuizRestore)
	require.Equal(t, "playing", restore.Status)
	require.Equal(t, 1, restore.Round)
	require.NotNil(t, restore.Problem)
	require.Equal(t, round.Problem, *restore.Problem)
	require.Nil(t, restore.MyAnswer)
	require.False(t, restore.IsHost)
	require.Len(t, restore.Players, 2)
}

func TestQuiz_RunsToFinish(t *testing.T) {
	h := newHarness(t, KindQuiz, testConfig())
	h.join("p1", "Ann", true)
	h.act("p1", wire.CmdQuizUpdateConfig, func(m *types.ClientMessage) { m.Difficulty = "hard"; m.TotalRounds = 5 })
	h.join("p2", "Bob", false)
	h.act("p1", wire.CmdQuizStartGame)

	round := recvType(t, h.sender.ch("p1"), wire.EvtQuizGameStarted).Data.(wire.QuizRound)
	require.Equal(t, 5, round.TotalRounds)
	for i := 1; i <= 5; i++ {
		require.Equal(t, i, round.Round)
		h.submit("p1", solve(round.Problem), t0)
		h.submit("p2", wrong(round.Problem), t0)
		res := recvType(t, h.sender.ch("p1"), wire.EvtQuizRoundResult).Data.(wire.QuizRoundResult)
		require.Equal(t, i == 5, res.IsLastRound)

		h.act("p2", wire.CmdQuizNextRound)
		require.Equal(t, ErrNotHost.Error(), recvError(t, h.sender.ch("p2"), wire.EvtQuizError))

		h.act("p1", wire.CmdQuizNextRound)
		if i < 5 {
			round = recvType(t, h.sender.ch("p1"), wire.EvtQuizNextProblem).Data.(wire.QuizRound)
		}
	}

	host := recvType(t, h.sender.ch("p1"), wire.EvtQuizGameFinished).Data.(wire.QuizFinished)
	guest := recvType(t, h.sender.ch("p2"), wire.EvtQuizGameFinished).Data.(wire.QuizFinished)
	require.True(t, host.IsHost)
	require.False(t, guest.IsHost)
	require.Equal(t, []wire.QuizStanding{
		{Rank: 1, Name: "Ann", Emoji: "🦊", Score: 5},
		{Rank: 2, Name: "Bob", Emoji: "🦊", Score: 0},
	}, host.Standings)
	require.Equal(t, "finished", view(t, h.room).Status)
}

func TestQuiz_ResetCancelsCountdown(t *testing.T) {
	cfg := testConfig()
	cfg.CountdownTick = 20 * time.Millisecond
	h := newHarness(t, KindQuiz, cfg)
	h.join("p1", "Ann", true)
	h.join("p2", "Bob", false)
	h.act("p1", wire.CmdQuizStartGame)
	recvType(t, h.sender.ch("p2"), wire.EvtQuizCountdown)

	h.act("p1", wire.CmdQuizResetGame)
	recvType(t, h.sender.ch("p2"), wire.EvtQuizGameReset)
	recvNone(t, h.sender.ch("p2"), wire.EvtQuizGameStarted, 120*time.Millisecond)
	require.Equal(t, "waiting", view(t, h.room).Status)
}
