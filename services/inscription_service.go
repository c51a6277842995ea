package services

import (
	"context"
	"errors"
	"time"

	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
)

// InscriptionService registers players into tournaments. Registration is
// only open while the tournament is upcoming, before its deadline and
// below its participant cap.
type InscriptionService interface {
	Register(ctx context.Context, tournamentID, userID int) (*models.Inscription, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Inscription, error)
	Withdraw(ctx context.Context, inscriptionID, requesterID int, requesterRole models.UserRole) error
}

type inscriptionService struct {
	inscriptionRepo repositories.InscriptionRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
}

func NewInscriptionService(
	inscriptionRepo repositories.InscriptionRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
) InscriptionService {
	return &inscriptionService{
		inscriptionRepo: inscriptionRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
	}
}

func (s *inscriptionService) Register(ctx context.Context, tournamentID, userID int) (*models.Inscription, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status != models.StatusUpcoming {
		return nil, ErrInscriptionClosed
	}
	if t.RegistrationDeadline != nil && time.Now().After(*t.RegistrationDeadline) {
		return nil, ErrInscriptionDeadlinePassed
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Deleted {
		return nil, ErrUserNotFound
	}

	if t.MaxParticipants != nil {
		count, err := s.inscriptionRepo.CountByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		if count >= *t.MaxParticipants {
			return nil, ErrInscriptionCapacityFull
		}
	}

	inscription := &models.Inscription{TournamentID: tournamentID, UserID: userID}
	if err := s.inscriptionRepo.Create(ctx, inscription); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInscriptionConflict):
			return nil, ErrInscriptionConflict
		case errors.Is(err, repositories.ErrInscriptionInvalidRef):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inscription, nil
}

func (s *inscriptionService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Inscription, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.inscriptionRepo.ListByTournament(ctx, tournamentID)
}

func (s *inscriptionService) Withdraw(ctx context.Context, inscriptionID, requesterID int, requesterRole models.UserRole) error {
	inscription, err := s.inscriptionRepo.GetByID(ctx, inscriptionID)
	if err != nil {
		if errors.Is(err, repositories.ErrInscriptionNotFound) {
			return ErrInscriptionNotFound
		}
		return err
	}
	if inscription.UserID != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	t, err := s.tournamentRepo.GetByID(ctx, inscription.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if t.Status != models.StatusUpcoming {
		return ErrInscriptionClosed
	}

	return s.inscriptionRepo.Delete(ctx, inscriptionID)
}
