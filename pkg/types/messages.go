package types

// Client -> Server
//
// Bingo:
//   create-room:   name, winLines?, numberRange?
//   join-room:     code, name
//   rejoin-room:   code
//   update-config: winLines, numberRange          (host, waiting)
//   start-game:    {}                             (host)
//   call-number:   number                         (current turn)
//   new-game:      {}                             (host)
//   leave-room:    {}
//   close-room:    {}                             (host)
//
// Quiz (same shape, "quiz:" prefix):
//   quiz:create-room:   name, emoji
//   quiz:join-room:     code, name, emoji
//   quiz:rejoin-room:   code
//   quiz:update-config: difficulty, totalRounds   (host, waiting)
//   quiz:start-game:    {}                        (host)
//   quiz:submit-answer: choice                    (once per round)
//   quiz:next-round:    {}                        (host, after a round result)
//   quiz:reset-game:    {}                        (host)
//   quiz:leave-room:    {}
//   quiz:close-room:    {}                        (host)

const (
	CmdCreateRoom   = "create-room"
	CmdJoinRoom     = "join-room"
	CmdRejoinRoom   = "rejoin-room"
	CmdUpdateConfig = "update-config"
	CmdStartGame    = "start-game"
	CmdCallNumber   = "call-number"
	CmdNewGame      = "new-game"
	CmdLeaveRoom    = "leave-room"
	CmdCloseRoom    = "close-room"

	CmdQuizCreateRoom   = "quiz:create-room"
	CmdQuizJoinRoom     = "quiz:join-room"
	CmdQuizRejoinRoom   = "quiz:rejoin-room"
	CmdQuizUpdateConfig = "quiz:update-config"
	CmdQuizStartGame    = "quiz:start-game"
	CmdQuizSubmitAnswer = "quiz:submit-answer"
	CmdQuizNextRound    = "quiz:next-round"
	CmdQuizResetGame    = "quiz:reset-game"
	CmdQuizLeaveRoom    = "quiz:leave-room"
	CmdQuizCloseRoom    = "quiz:close-room"
)

// Server -> Client
const (
	EvtWelcome  = "welcome"
	EvtRoomList = "room-list"

	EvtRoomCreated        = "room-created"
	EvtRoomJoined         = "room-joined"
	EvtRoomRejoined       = "room-rejoined"
	EvtPlayerList         = "player-list"
	EvtGameStarted        = "game-started"
	EvtNumberCalled       = "number-called"
	EvtTurnUpdated        = "turn-updated"
	EvtGameReset          = "game-reset"
	EvtPlayerReconnected  = "player-reconnected"
	EvtPlayerDisconnected = "player-disconnected"
	EvtPlayerLeft         = "player-left"
	EvtRoomClosed         = "room-closed"
	EvtError              = "error-msg"

	EvtQuizRoomCreated  = "quiz:room-created"
	EvtQuizRoomJoined   = "quiz:room-joined"
	EvtQuizRoomRejoined = "quiz:room-rejoined"
	EvtQuizPlayerList   = "quiz:player-list"
	EvtQuizCountdown    = "quiz:countdown"
	EvtQuizGameStarted  = "quiz:game-started"
	EvtQuizRoundResult  = "quiz:round-result"
	EvtQuizNextProblem  = "quiz:next-problem"
	EvtQuizGameFinished = "quiz:game-finished"
	EvtQuizGameReset    = "quiz:game-reset"
	EvtQuizRoomClosed   = "quiz:room-closed"
	EvtQuizError        = "quiz:error-msg"
)

type Welcome struct {
	PlayerID string `json:"playerId"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

type RoomRef struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName"`
}

type PlayerName struct {
	Name string `json:"name"`
}

type TurnUpdate struct {
	CurrentTurn int `json:"currentTurn"`
}

type Countdown struct {
	Count int `json:"count"`
}

type RoomList struct {
	Bingo []RoomListing `json:"bingo"`
	Quiz  []RoomListing `json:"quiz"`
}

type RoomListing struct {
	Code     string `json:"code"`
	HostName string `json:"hostName"`
	Players  int    `json:"players"`
}
