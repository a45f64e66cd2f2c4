// Package stats keeps the per-room win/loss ledger and persists it through a blob store.
package stats

import (
	"maps"
	"slices"
	"strings"
)

// Record is one display name's history inside a single room.
type Record struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	CurrentStreak int `json:"currentStreak"`
	MaxStreak     int `json:"maxStreak"`
}

func (r *Record) RecordWin() {
	r.Wins++
	r.CurrentStreak++
	if r.CurrentStreak > r.MaxStreak {
		r.MaxStreak = r.CurrentStreak
	}
}

func (r *Record) RecordLoss() {
	r.Losses++
	r.CurrentStreak = 0
}

// Records is keyed by display name, not identity, so history follows a name across
// identity churn within the same room.
type Records map[string]Record

// Settle applies the result of one finished game: winner gets a win, every other
// participant a loss.
func (rs Records) Settle(winner string, participants []string) {
	for _, name := range participants {
		rec := rs[name]
		if name == winner {
			rec.RecordWin()
		} else {
			rec.RecordLoss()
		}
		rs[name] = rec
	}
}

func (rs Records) Clone() Records {
	if rs == nil {
		return Records{}
	}
	return maps.Clone(rs)
}

type Standing struct {
	Name string
	Record
}

// Ranking orders by wins descending, then losses ascending, then name.
func (rs Records) Ranking() []Standing {
	out := make([]Standing, 0, len(rs))
	for name, rec := range rs {
		out = append(out, Standing{Name: name, Record: rec})
	}
	slices.SortFunc(out, func(a, b Standing) int {
		if a.Wins != b.Wins {
			return b.Wins - a.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses - b.Losses
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Entry is the durable blob stored per bingo room code.
type Entry struct {
	WinLines     int     `json:"winLines"`
	NumberRange  int     `json:"numberRange"`
	Players      Records `json:"players"`
	LastActivity int64   `json:"lastActivity"`
}
