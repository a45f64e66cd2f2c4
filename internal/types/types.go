package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	wire "github.com/DoyleJ11/partyroom-backend/pkg/types"
)

const (
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 4

	MaxNameRunes  = 16
	MaxEmojiRunes = 8
)

var ErrBadJSON = errors.New("bad json")
var ErrUnknownType = errors.New("unknown message type")
var ErrInvalidName = errors.New("name must be 1-16 characters")
var ErrInvalidCode = errors.New("room code must be 4 characters")
var ErrInvalidEmoji = errors.New("emoji is too long")
var ErrMissingNumber = errors.New("number is required")
var ErrMissingChoice = errors.New("choice is required")

type ClientMessage struct {
	Type        string `json:"type"`
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	Number      *int   `json:"number,omitempty"`
	Choice      *int   `json:"choice,omitempty"`
	WinLines    int    `json:"winLines,omitempty"`
	NumberRange int    `json:"numberRange,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	TotalRounds int    `json:"totalRounds,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// IsQuiz reports whether the message belongs to the quiz room kind.
func (m ClientMessage) IsQuiz() bool { return strings.HasPrefix(m.Type, "quiz:") }

// Decode parses and validates one client frame. Names are trimmed and NFC-normalised
// so ledger keys match across devices; codes are upper-cased.
func Decode(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if err := m.normalize(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *ClientMessage) normalize() error {
	switch m.Type {
	case wire.CmdCreateRoom:
		return m.checkName()
	case wire.CmdQuizCreateRoom:
		if err := m.checkName(); err != nil {
			return err
		}
		return m.checkEmoji()
	case wire.CmdJoinRoom:
		if err := m.checkCode(); err != nil {
			return err
		}
		return m.checkName()
	case wire.CmdQuizJoinRoom:
		if err := m.checkCode(); err != nil {
			return err
		}
		if err := m.checkName(); err != nil {
			return err
		}
		return m.checkEmoji()
	case wire.CmdRejoinRoom, wire.CmdQuizRejoinRoom:
		return m.checkCode()
	case wire.CmdCallNumber:
		if m.Number == nil {
			return ErrMissingNumber
		}
	case wire.CmdQuizSubmitAnswer:
		if m.Choice == nil {
			return ErrMissingChoice
		}
	case wire.CmdUpdateConfig, wire.CmdStartGame, wire.CmdNewGame, wire.CmdLeaveRoom, wire.CmdCloseRoom,
		wire.CmdQuizUpdateConfig, wire.CmdQuizStartGame, wire.CmdQuizNextRound, wire.CmdQuizResetGame,
		wire.CmdQuizLeaveRoom, wire.CmdQuizCloseRoom:
	default:
		return ErrUnknownType
	}
	return nil
}

func (m *ClientMessage) checkName() error {
	name, ok := NormalizeName(m.Name)
	if !ok {
		return ErrInvalidName
	}
	m.Name = name
	return nil
}

func (m *ClientMessage) checkCode() error {
	code, ok := NormalizeCode(m.Code)
	if !ok {
		return ErrInvalidCode
	}
	m.Code = code
	return nil
}

func (m *ClientMessage) checkEmoji() error {
	m.Emoji = strings.TrimSpace(m.Emoji)
	if utf8.RuneCountInString(m.Emoji) > MaxEmojiRunes {
		return ErrInvalidEmoji
	}
	return nil
}

func NormalizeName(name string) (string, bool) {
	name = norm.NFC.String(strings.TrimSpace(name))
	n := utf8.RuneCountInString(name)
	return name, n >= 1 && n <= MaxNameRunes
}

func NormalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != CodeLength {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return code, false
		}
	}
	return code, true
}

// ErrorEvent picks the error event name for the room kind the failed action targeted.
func ErrorEvent(quiz bool, err error) ServerMessage {
	typ := wire.EvtError
	if quiz {
		typ = wire.EvtQuizError
	}
	return ServerMessage{Type: typ, Data: wire.ErrorMsg{Message: err.Error()}}
}
