package elo

import (
	"errors"
	"math"

	"github.com/chessarena/tournament-system/models"
)

const (
	InitialRating = 1500
	MinRating     = 0
	MaxRating     = 4000
)

// K-factor bands. Each side's K is taken from its own current rating.
const (
	kHigh      = 24
	kMid       = 32
	kLow       = 40
	midCutoff  = 2100
	highCutoff = 2400
)

var ErrInvalidResult = errors.New("result is not a terminal match outcome")

// Update carries the outcome of a single rating computation.
type Update struct {
	NewWhite   int
	NewBlack   int
	DeltaWhite int
	DeltaBlack int
}

// ExpectedScore returns the probability-like expected score of the player
// rated ratingA against the player rated ratingB.
// ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFactor returns the rating-change coefficient for a given current rating.
func KFactor(rating int) int {
	switch {
	case rating < midCutoff:
		return kLow
	case rating < highCutoff:
		return kMid
	default:
		return kHigh
	}
}

// ComputeUpdatedRatings computes both players' new ratings after a terminal
// result. It is a pure function: the only failure mode is a result that is
// not one of the three terminal outcomes. New ratings are clamped to
// [MinRating, MaxRating].
func ComputeUpdatedRatings(whiteRating, blackRating int, result models.MatchResult) (Update, error) {
	var scoreWhite, scoreBlack float64
	switch result {
	case models.MatchWhiteWins:
		scoreWhite, scoreBlack = 1, 0
	case models.MatchBlackWins:
		scoreWhite, scoreBlack = 0, 1
	case models.MatchDraw:
		scoreWhite, scoreBlack = 0.5, 0.5
	default:
		return Update{}, ErrInvalidResult
	}

	expectedWhite := ExpectedScore(whiteRating, blackRating)
	expectedBlack := ExpectedScore(blackRating, whiteRating)

	deltaWhite := int(math.Round(float64(KFactor(whiteRating)) * (scoreWhite - expectedWhite)))
	deltaBlack := int(math.Round(float64(KFactor(blackRating)) * (scoreBlack - expectedBlack)))

	return Update{
		NewWhite:   clamp(whiteRating + deltaWhite),
		NewBlack:   clamp(blackRating + deltaBlack),
		DeltaWhite: deltaWhite,
		DeltaBlack: deltaBlack,
	}, nil
}

func clamp(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
