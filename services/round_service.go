package services

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/chessarena/tournament-system/live"
	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/pairing"
	"github.com/chessarena/tournament-system/repositories"
)

// RoundService orchestrates pairing generation: it checks the tournament's
// preconditions, derives the total round count when missing, asks the
// generator for the pairings and persists the whole round atomically.
type RoundService interface {
	GenerateRound(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type roundService struct {
	txRunner        repositories.TxRunner
	tournamentRepo  repositories.TournamentRepository
	inscriptionRepo repositories.InscriptionRepository
	matchRepo       repositories.MatchRepository
	generator       pairing.RoundGenerator
	hub             *live.Hub
	logger          *slog.Logger
}

func NewRoundService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	inscriptionRepo repositories.InscriptionRepository,
	matchRepo repositories.MatchRepository,
	hub *live.Hub,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		txRunner:        txRunner,
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
		generator:       pairing.NewSwissGenerator(),
		hub:             hub,
		logger:          logger,
	}
}

// deriveTotalRounds computes the round count from format and roster size
// when the organizer configured none.
func deriveTotalRounds(format models.TournamentFormat, participants int) int {
	switch format {
	case models.FormatRoundRobin:
		return participants - 1
	default: // swiss, elimination
		return int(math.Ceil(math.Log2(float64(participants))))
	}
}

func (s *roundService) GenerateRound(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status != models.StatusOngoing {
		return nil, ErrTournamentNotOngoing
	}

	inscriptions, err := s.inscriptionRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(inscriptions) < 2 {
		return nil, ErrRoundNotEnoughPlayers
	}

	totalRounds := 0
	derived := false
	if t.TotalRounds != nil {
		totalRounds = *t.TotalRounds
	} else {
		totalRounds = deriveTotalRounds(t.Format, len(inscriptions))
		derived = true
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, err
	}

	maxRound := 0
	for _, m := range matches {
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	nextRound := maxRound + 1
	if nextRound > totalRounds {
		return nil, ErrRoundLimitReached
	}

	// Every match of the immediately preceding round must be terminal.
	// Round 1 has no such gate.
	if nextRound > 1 {
		for _, m := range matches {
			if m.Round == nextRound-1 && !m.Result.Terminal() {
				return nil, ErrRoundPriorRoundPending
			}
		}
	}

	generated, err := s.generator.GenerateRound(ctx, pairing.GenerateRoundParams{
		Tournament:   t,
		Inscriptions: inscriptions,
		Matches:      matches,
		Round:        nextRound,
	})
	if err != nil {
		return nil, err
	}

	// Persist the derived round count and the whole round in one
	// transaction; half a round on disk is not an acceptable outcome.
	err = s.txRunner.WithTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if derived {
			if err := s.tournamentRepo.UpdateTotalRounds(ctx, exec, tournamentID, totalRounds); err != nil {
				return err
			}
		}
		for _, m := range generated {
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("round generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", nextRound),
		slog.Int("matches", len(generated)))
	if s.hub != nil {
		s.hub.BroadcastToTournament(tournamentID, live.EventRoundGenerated, generated)
	}
	return generated, nil
}
