package models

import "time"

// TournamentStatus represents the lifecycle states of a tournament,
// matching the ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusFinished  TournamentStatus = "finished"
	StatusCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status allows no further transition.
func (s TournamentStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// TournamentFormat selects how the total round count is derived when the
// organizer does not configure one explicitly.
type TournamentFormat string

const (
	FormatSwiss       TournamentFormat = "swiss"
	FormatRoundRobin  TournamentFormat = "round_robin"
	FormatElimination TournamentFormat = "elimination"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSwiss, FormatRoundRobin, FormatElimination:
		return true
	}
	return false
}

// Tournament represents a chess tournament.
type Tournament struct {
	ID                   int              `json:"id" db:"id"`
	Name                 string           `json:"name" db:"name"`
	Description          *string          `json:"description,omitempty" db:"description"`
	CreatorID            *int             `json:"creator_id,omitempty" db:"creator_id"`
	Format               TournamentFormat `json:"format" db:"format"`
	Status               TournamentStatus `json:"status" db:"status"`
	StartDate            time.Time        `json:"start_date" db:"start_date"`
	EndDate              time.Time        `json:"end_date" db:"end_date"`
	RegistrationDeadline *time.Time       `json:"registration_deadline,omitempty" db:"registration_deadline"`
	MaxParticipants      *int             `json:"max_participants,omitempty" db:"max_participants"`
	TotalRounds          *int             `json:"total_rounds,omitempty" db:"total_rounds"`
	BannerKey            *string          `json:"-" db:"banner_key"`
	BannerURL            *string          `json:"banner_url,omitempty" db:"-"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`

	// Optional related entities, loaded on demand.
	Creator      *User         `json:"creator,omitempty" db:"-"`
	Inscriptions []Inscription `json:"inscriptions,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
