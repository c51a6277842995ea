package pairing

import (
	"context"
	"fmt"
	"sort"

	"github.com/chessarena/tournament-system/models"
)

// SwissGenerator pairs players of similar cumulative score while avoiding
// rematches where possible. Ties in score keep registration order (stable
// sort); no Buchholz-style secondary tie-break is applied.
type SwissGenerator struct{}

func NewSwissGenerator() RoundGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

func (g *SwissGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) ([]*models.Match, error) {
	if params.Round < 1 {
		return nil, fmt.Errorf("SwissGenerator: invalid round number %d", params.Round)
	}
	if len(params.Inscriptions) < 2 {
		return nil, fmt.Errorf("SwissGenerator: not enough participants (found %d, min 2 required)", len(params.Inscriptions))
	}

	points, opponents := tallyHistory(params.Matches)

	// Stable sort by points descending; equal scores keep registration order.
	order := make([]*models.Inscription, len(params.Inscriptions))
	copy(order, params.Inscriptions)
	sort.SliceStable(order, func(i, j int) bool {
		return points[order[i].UserID] > points[order[j].UserID]
	})

	paired := make(map[int]bool, len(order))
	matches := make([]*models.Match, 0, len(order)/2)

	for i, insc := range order {
		if paired[insc.UserID] {
			continue
		}

		opponent := -1
		for j := i + 1; j < len(order); j++ {
			candidate := order[j].UserID
			if paired[candidate] {
				continue
			}
			if !opponents[insc.UserID][candidate] {
				opponent = candidate
				break
			}
		}
		if opponent == -1 {
			// Every remaining candidate has been faced already: fall back to
			// the first unpaired one so the walk always terminates.
			for j := i + 1; j < len(order); j++ {
				if !paired[order[j].UserID] {
					opponent = order[j].UserID
					break
				}
			}
		}
		if opponent == -1 {
			// Odd roster tail: nobody left to pair with this round.
			continue
		}

		paired[insc.UserID] = true
		paired[opponent] = true
		matches = append(matches, &models.Match{
			TournamentID: params.Tournament.ID,
			WhiteID:      insc.UserID, // higher-ranked side plays white
			BlackID:      opponent,
			Round:        params.Round,
			Result:       models.MatchNotStarted,
		})
	}

	return matches, nil
}

// tallyHistory walks the full match history once and returns cumulative
// points per player (terminal results only; win=1, draw=0.5) plus the set
// of opponents each player has already faced. It is a side-effect-free
// query over an immutable snapshot.
func tallyHistory(matches []*models.Match) (map[int]float64, map[int]map[int]bool) {
	points := make(map[int]float64)
	opponents := make(map[int]map[int]bool)

	record := func(a, b int) {
		if opponents[a] == nil {
			opponents[a] = make(map[int]bool)
		}
		opponents[a][b] = true
	}

	for _, m := range matches {
		record(m.WhiteID, m.BlackID)
		record(m.BlackID, m.WhiteID)

		switch m.Result {
		case models.MatchWhiteWins:
			points[m.WhiteID] += 1
		case models.MatchBlackWins:
			points[m.BlackID] += 1
		case models.MatchDraw:
			points[m.WhiteID] += 0.5
			points[m.BlackID] += 0.5
		}
	}
	return points, opponents
}
