package services

import (
	"context"
	"errors"
	"sort"

	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
	"golang.org/x/sync/errgroup"
)

// StandingsService derives rankings from inscriptions and match history.
// No aggregate is stored anywhere; every call recomputes from scratch.
type StandingsService interface {
	ComputeStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
}

type standingsService struct {
	tournamentRepo  repositories.TournamentRepository
	inscriptionRepo repositories.InscriptionRepository
	matchRepo       repositories.MatchRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	inscriptionRepo repositories.InscriptionRepository,
	matchRepo repositories.MatchRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
	}
}

func (s *standingsService) ComputeStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	var (
		inscriptions []*models.Inscription
		matches      []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inscriptions, err = s.inscriptionRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// One row per inscription, in registration order; that order is what
	// the stable sort below preserves for equal scores.
	standings := make([]models.Standing, 0, len(inscriptions))
	index := make(map[int]int, len(inscriptions))
	for _, i := range inscriptions {
		index[i.UserID] = len(standings)
		standings = append(standings, models.Standing{PlayerID: i.UserID})
	}

	record := func(playerID int, points float64, wins, draws, losses int) {
		pos, ok := index[playerID]
		if !ok {
			return
		}
		standings[pos].Points += points
		standings[pos].GamesPlayed++
		standings[pos].Wins += wins
		standings[pos].Draws += draws
		standings[pos].Losses += losses
	}

	for _, m := range matches {
		switch m.Result {
		case models.MatchWhiteWins:
			record(m.WhiteID, 1, 1, 0, 0)
			record(m.BlackID, 0, 0, 0, 1)
		case models.MatchBlackWins:
			record(m.WhiteID, 0, 0, 0, 1)
			record(m.BlackID, 1, 1, 0, 0)
		case models.MatchDraw:
			record(m.WhiteID, 0.5, 0, 1, 0)
			record(m.BlackID, 0.5, 0, 1, 0)
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points > standings[j].Points
	})
	return standings, nil
}
