package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chessarena/tournament-system/elo"
	"github.com/chessarena/tournament-system/live"
	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
)

type CreateMatchInput struct {
	TournamentID int `json:"tournament_id"`
	WhiteID      int `json:"white_id"`
	BlackID      int `json:"black_id"`
	Round        int `json:"round"`
}

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, result *models.MatchResult) ([]*models.Match, error)
	// SubmitResult advances a match along its one-way result path. When the
	// result becomes terminal, both players' ratings are recomputed
	// best-effort: a rating failure is logged but never unwinds the already
	// committed result.
	SubmitResult(ctx context.Context, id int, result models.MatchResult) (*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type matchService struct {
	tournamentRepo  repositories.TournamentRepository
	inscriptionRepo repositories.InscriptionRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
	hub             *live.Hub
	logger          *slog.Logger
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	inscriptionRepo repositories.InscriptionRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.WhiteID == input.BlackID {
		return nil, ErrMatchSamePlayer
	}
	if input.Round < 1 {
		return nil, ErrMatchInvalidRound
	}

	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	inscriptions, err := s.inscriptionRepo.ListByTournament(ctx, input.TournamentID)
	if err != nil {
		return nil, err
	}
	inscribed := make(map[int]bool, len(inscriptions))
	for _, i := range inscriptions {
		inscribed[i.UserID] = true
	}
	if !inscribed[input.WhiteID] || !inscribed[input.BlackID] {
		return nil, ErrMatchPlayerNotInscribed
	}

	m := &models.Match{
		TournamentID: input.TournamentID,
		WhiteID:      input.WhiteID,
		BlackID:      input.BlackID,
		Round:        input.Round,
		Result:       models.MatchNotStarted,
	}
	if err := s.matchRepo.Create(ctx, nil, m); err != nil {
		if errors.Is(err, repositories.ErrMatchInvalidRef) {
			return nil, ErrMatchPlayerNotInscribed
		}
		return nil, err
	}
	return m, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int, result *models.MatchResult) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID, round, result)
}

// validateResultTransition enforces the one-way result path:
// not_started -> ongoing -> terminal, with no change after a terminal
// result. Jumping straight from not_started to a terminal outcome is legal.
func validateResultTransition(from, to models.MatchResult) error {
	if !to.Valid() {
		return ErrMatchInvalidResult
	}
	if from.Terminal() {
		return ErrMatchAlreadyFinished
	}
	switch from {
	case models.MatchNotStarted:
		if to == models.MatchOngoing || to.Terminal() {
			return nil
		}
	case models.MatchOngoing:
		if to.Terminal() {
			return nil
		}
	}
	return ErrMatchResultBackwards
}

func (s *matchService) SubmitResult(ctx context.Context, id int, result models.MatchResult) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if err := validateResultTransition(m.Result, result); err != nil {
		return nil, err
	}

	if err := s.matchRepo.UpdateResult(ctx, nil, id, result); err != nil {
		return nil, err
	}
	m.Result = result

	// The result write above is the authoritative, committed fact. Rating
	// recomputation happens exactly once, at the moment the result becomes
	// terminal, and is best-effort relative to it.
	if result.Terminal() {
		if err := s.applyRatingUpdate(ctx, m); err != nil {
			s.logger.Error("rating update failed after match result",
				slog.Int("match_id", m.ID),
				slog.Any("error", err))
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToTournament(m.TournamentID, live.EventMatchResult, m)
	}
	return m, nil
}

func (s *matchService) applyRatingUpdate(ctx context.Context, m *models.Match) error {
	white, err := s.userRepo.GetByID(ctx, m.WhiteID)
	if err != nil {
		return err
	}
	black, err := s.userRepo.GetByID(ctx, m.BlackID)
	if err != nil {
		return err
	}

	update, err := elo.ComputeUpdatedRatings(white.Rating, black.Rating, m.Result)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateRating(ctx, nil, white.ID, update.NewWhite); err != nil {
		return err
	}
	if err := s.userRepo.UpdateRating(ctx, nil, black.ID, update.NewBlack); err != nil {
		return err
	}

	s.logger.Info("ratings updated",
		slog.Int("match_id", m.ID),
		slog.Int("white_id", white.ID), slog.Int("white_delta", update.DeltaWhite),
		slog.Int("black_id", black.ID), slog.Int("black_delta", update.DeltaBlack))
	return nil
}

func (s *matchService) Delete(ctx context.Context, id int) error {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if m.Result != models.MatchNotStarted {
		return ErrMatchDeleteStarted
	}
	return s.matchRepo.Delete(ctx, id)
}
