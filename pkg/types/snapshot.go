package types

// Bingo payloads.

type Standing struct {
	Name          string `json:"name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	CurrentStreak int    `json:"currentStreak"`
	MaxStreak     int    `json:"maxStreak"`
}

type RosterEntry struct {
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

type BingoPlayerList struct {
	Code        string        `json:"code"`
	Status      string        `json:"status"`
	WinLines    int           `json:"winLines"`
	NumberRange int           `json:"numberRange"`
	Players     []RosterEntry `json:"players"`
	Rankings    []Standing    `json:"rankings"`
}

type BingoGameStarted struct {
	Board       [][]int  `json:"board"`
	TurnOrder   []string `json:"turnOrder"`
	MyTurnIndex int      `json:"myTurnIndex"`
	CurrentTurn int      `json:"currentTurn"`
	WinLines    int      `json:"winLines"`
	NumberRange int      `json:"numberRange"`
}

type LineCount struct {
	Name       string `json:"name"`
	BingoLines int    `json:"bingoLines"`
	IsMe       bool   `json:"isMe"`
}

type Winner struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

type NumberCalled struct {
	Number        int         `json:"number"`
	CallerName    string      `json:"callerName"`
	CalledNumbers []int       `json:"calledNumbers"`
	MyMarked      [][]bool    `json:"myMarked"`
	MyBingoLines  int         `json:"myBingoLines"`
	CurrentTurn   int         `json:"currentTurn"`
	PlayerStates  []LineCount `json:"playerStates"`
	Winner        *Winner     `json:"winner,omitempty"`
	Rankings      []Standing  `json:"rankings,omitempty"`
}

// BingoRestore is sent to a known identity rejoining a started game.
type BingoRestore struct {
	Code          string      `json:"code"`
	PlayerName    string      `json:"playerName"`
	Status        string      `json:"status"`
	Board         [][]int     `json:"board,omitempty"`
	Marked        [][]bool    `json:"marked,omitempty"`
	MyBingoLines  int         `json:"myBingoLines"`
	TurnOrder     []string    `json:"turnOrder"`
	MyTurnIndex   int         `json:"myTurnIndex"`
	CurrentTurn   int         `json:"currentTurn"`
	CalledNumbers []int       `json:"calledNumbers"`
	PlayerStates  []LineCount `json:"playerStates"`
	Winner        *Winner     `json:"winner,omitempty"`
	Rankings      []Standing  `json:"rankings,omitempty"`
}

// Quiz payloads.

type QuizRosterEntry struct {
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	Score     int    `json:"score"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

type QuizPlayerList struct {
	Code        string            `json:"code"`
	Status      string            `json:"status"`
	Difficulty  string            `json:"difficulty"`
	TotalRounds int               `json:"totalRounds"`
	Players     []QuizRosterEntry `json:"players"`
}

type Problem struct {
	A        int    `json:"a"`
	B        int    `json:"b"`
	Operator string `json:"operator"`
	Choices  []int  `json:"choices"`
}

type QuizRound struct {
	Round       int     `json:"round"`
	TotalRounds int     `json:"totalRounds"`
	Problem     Problem `json:"problem"`
}

type QuizAnswer struct {
	Name    string `json:"name"`
	Choice  int    `json:"choice"`
	Correct bool   `json:"correct"`
}

type QuizRoundResult struct {
	Round         int               `json:"round"`
	TotalRounds   int               `json:"totalRounds"`
	CorrectAnswer int               `json:"correctAnswer"`
	Winner        *QuizRosterEntry  `json:"winner,omitempty"`
	Answers       []QuizAnswer      `json:"answers"`
	Players       []QuizRosterEntry `json:"players"`
	IsLastRound   bool              `json:"isLastRound"`
}

type QuizStanding struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Score int    `json:"score"`
}

type QuizFinished struct {
	Standings []QuizStanding `json:"standings"`
	IsHost    bool           `json:"isHost"`
}

// QuizRestore is the rejoin snapshot; Status selects which sections are populated.
type QuizRestore struct {
	Code        string            `json:"code"`
	PlayerName  string            `json:"playerName"`
	Status      string            `json:"status"`
	IsHost      bool              `json:"isHost"`
	Difficulty  string            `json:"difficulty"`
	TotalRounds int               `json:"totalRounds"`
	Players     []QuizRosterEntry `json:"players"`
	Round       int               `json:"round,omitempty"`
	Problem     *Problem          `json:"problem,omitempty"`
	MyAnswer    *QuizAnswer       `json:"myAnswer,omitempty"`
	RoundWinner *QuizRosterEntry  `json:"roundWinner,omitempty"`
	Standings   []QuizStanding    `json:"standings,omitempty"`
}
