package pairing

import (
	"context"

	"github.com/chessarena/tournament-system/models"
)

// GenerateRoundParams bundles everything a generator needs to build the
// pairings of one round. Inscriptions must be in original registration
// order; Matches is the full match history of the tournament.
type GenerateRoundParams struct {
	Tournament   *models.Tournament
	Inscriptions []*models.Inscription
	Matches      []*models.Match
	Round        int
}

// RoundGenerator produces the matches of a single round. Generators are
// pure: they never persist anything.
type RoundGenerator interface {
	GenerateRound(ctx context.Context, params GenerateRoundParams) ([]*models.Match, error)

	GetName() string
}
