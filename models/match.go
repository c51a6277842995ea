package models

import "time"

// MatchResult is the closed set of results a match can carry. Transitions
// are one-way: not_started -> ongoing -> one of the terminal outcomes.
type MatchResult string

const (
	MatchNotStarted MatchResult = "not_started"
	MatchOngoing    MatchResult = "ongoing"
	MatchWhiteWins  MatchResult = "white_wins"
	MatchBlackWins  MatchResult = "black_wins"
	MatchDraw       MatchResult = "draw"
)

func (r MatchResult) Valid() bool {
	switch r {
	case MatchNotStarted, MatchOngoing, MatchWhiteWins, MatchBlackWins, MatchDraw:
		return true
	}
	return false
}

// Terminal reports whether the result is a final outcome. A terminal
// result permits no further mutation.
func (r MatchResult) Terminal() bool {
	switch r {
	case MatchWhiteWins, MatchBlackWins, MatchDraw:
		return true
	}
	return false
}

// Match links two inscribed players inside one tournament round.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	WhiteID      int         `json:"white_id" db:"white_id"`
	BlackID      int         `json:"black_id" db:"black_id"`
	Round        int         `json:"round" db:"round"`
	Result       MatchResult `json:"result" db:"result"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}
