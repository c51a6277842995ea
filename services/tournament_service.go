package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chessarena/tournament-system/live"
	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
	"github.com/chessarena/tournament-system/storage"
)

// minParticipantsToStart gates the manual upcoming -> ongoing transition.
// The scheduler's time-driven promotion does not apply this gate.
const minParticipantsToStart = 4

type CreateTournamentInput struct {
	Name                 string                  `json:"name"`
	Description          *string                 `json:"description"`
	Format               models.TournamentFormat `json:"format"`
	StartDate            time.Time               `json:"start_date"`
	EndDate              time.Time               `json:"end_date"`
	RegistrationDeadline *time.Time              `json:"registration_deadline"`
	MaxParticipants      *int                    `json:"max_participants"`
	TotalRounds          *int                    `json:"total_rounds"`
	CreatorID            *int                    `json:"-"`
}

// UpdateTournamentInput carries a partial patch; nil fields stay untouched.
type UpdateTournamentInput struct {
	Name                 *string                  `json:"name"`
	Description          *string                  `json:"description"`
	Format               *models.TournamentFormat `json:"format"`
	StartDate            *time.Time               `json:"start_date"`
	EndDate              *time.Time               `json:"end_date"`
	RegistrationDeadline *time.Time               `json:"registration_deadline"`
	MaxParticipants      *int                     `json:"max_participants"`
	TotalRounds          *int                     `json:"total_rounds"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Start(ctx context.Context, id int) (*models.Tournament, error)
	Finish(ctx context.Context, id int) (*models.Tournament, error)
	Cancel(ctx context.Context, id int) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UploadBanner(ctx context.Context, id int, contentType string, r io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	txRunner        repositories.TxRunner
	tournamentRepo  repositories.TournamentRepository
	inscriptionRepo repositories.InscriptionRepository
	matchRepo       repositories.MatchRepository
	uploader        storage.FileUploader
	hub             *live.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	inscriptionRepo repositories.InscriptionRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txRunner:        txRunner,
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

// validateStatusTransition is the single source of truth for lifecycle
// legality. Status is monotonic along upcoming -> ongoing -> finished;
// cancelled is reachable from upcoming and ongoing only. The switch is
// exhaustive over the current status so a new state forces review here.
func validateStatusTransition(from, to models.TournamentStatus) error {
	if !to.Valid() {
		return ErrTournamentInvalidStatus
	}
	switch from {
	case models.StatusUpcoming:
		if to == models.StatusOngoing || to == models.StatusCancelled {
			return nil
		}
	case models.StatusOngoing:
		if to == models.StatusFinished || to == models.StatusCancelled {
			return nil
		}
	case models.StatusFinished, models.StatusCancelled:
		// Terminal: nothing leaves these states.
	default:
		return ErrTournamentInvalidStatus
	}
	return ErrTournamentInvalidStatusTransition
}

func validateTournamentDates(start, end time.Time, deadline *time.Time) error {
	if !start.Before(end) {
		return ErrTournamentInvalidDateRange
	}
	if deadline != nil && !deadline.Before(start) {
		return ErrTournamentInvalidDeadline
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !input.Format.Valid() {
		return nil, ErrTournamentInvalidFormat
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate, input.RegistrationDeadline); err != nil {
		return nil, err
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	t := &models.Tournament{
		Name:                 input.Name,
		Description:          input.Description,
		CreatorID:            input.CreatorID,
		Format:               input.Format,
		Status:               models.StatusUpcoming,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationDeadline: input.RegistrationDeadline,
		MaxParticipants:      input.MaxParticipants,
		TotalRounds:          input.TotalRounds,
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.attachBannerURL(t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.attachBannerURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	if err := s.applyUpdateGuards(ctx, t, input); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTournamentNameRequired
		}
		t.Name = *input.Name
	}
	if input.Description != nil {
		t.Description = input.Description
	}
	if input.Format != nil {
		if !input.Format.Valid() {
			return nil, ErrTournamentInvalidFormat
		}
		t.Format = *input.Format
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = *input.EndDate
	}
	if input.RegistrationDeadline != nil {
		t.RegistrationDeadline = input.RegistrationDeadline
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		t.MaxParticipants = input.MaxParticipants
	}
	if input.TotalRounds != nil {
		t.TotalRounds = input.TotalRounds
	}

	if err := validateTournamentDates(t.StartDate, t.EndDate, t.RegistrationDeadline); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Update(ctx, nil, t); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

// applyUpdateGuards enforces the field-mutation restrictions per status.
func (s *tournamentService) applyUpdateGuards(ctx context.Context, t *models.Tournament, input UpdateTournamentInput) error {
	switch t.Status {
	case models.StatusFinished, models.StatusCancelled:
		return ErrTournamentFrozen

	case models.StatusOngoing:
		// Only description and end date may change, and the end date can
		// only be pushed out.
		if input.Name != nil || input.Format != nil || input.StartDate != nil ||
			input.RegistrationDeadline != nil || input.MaxParticipants != nil || input.TotalRounds != nil {
			return ErrTournamentEditRestricted
		}
		if input.EndDate != nil && input.EndDate.Before(t.EndDate) {
			return ErrTournamentEndDateShortened
		}
		return nil

	case models.StatusUpcoming:
		if input.Format == nil && input.MaxParticipants == nil {
			return nil
		}
		count, err := s.inscriptionRepo.CountByTournament(ctx, t.ID)
		if err != nil {
			return err
		}
		if count >= 1 && input.Format != nil && *input.Format != t.Format {
			return ErrTournamentFormatFrozen
		}
		if input.MaxParticipants != nil && *input.MaxParticipants < count {
			return ErrTournamentCapacityBelowCount
		}
		return nil
	}
	return ErrTournamentInvalidStatus
}

func (s *tournamentService) Start(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := validateStatusTransition(t.Status, models.StatusOngoing); err != nil {
		return nil, err
	}

	count, err := s.inscriptionRepo.CountByTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if count < minParticipantsToStart {
		return nil, ErrTournamentNotEnoughParticipants
	}

	return s.transition(ctx, t, models.StatusOngoing)
}

func (s *tournamentService) Finish(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := validateStatusTransition(t.Status, models.StatusFinished); err != nil {
		return nil, err
	}
	return s.transition(ctx, t, models.StatusFinished)
}

func (s *tournamentService) Cancel(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := validateStatusTransition(t.Status, models.StatusCancelled); err != nil {
		return nil, err
	}
	return s.transition(ctx, t, models.StatusCancelled)
}

func (s *tournamentService) transition(ctx context.Context, t *models.Tournament, to models.TournamentStatus) (*models.Tournament, error) {
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, to); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	t.Status = to
	s.logger.Info("tournament status changed",
		slog.Int("tournament_id", t.ID),
		slog.String("status", string(to)))
	if s.hub != nil {
		s.hub.BroadcastToTournament(t.ID, live.EventStatusChanged, t)
	}
	return t, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	switch t.Status {
	case models.StatusOngoing:
		return ErrTournamentDeleteOngoing
	case models.StatusFinished:
		return ErrTournamentDeleteFinished
	}

	// Cascade delete matches and inscriptions with the tournament itself in
	// one transaction; a half-deleted tournament is never acceptable.
	return s.txRunner.WithTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		if err := s.inscriptionRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		return s.tournamentRepo.Delete(ctx, exec, id)
	})
}

func (s *tournamentService) UploadBanner(ctx context.Context, id int, contentType string, r io.Reader) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if t.Status.Terminal() {
		return nil, ErrTournamentFrozen
	}

	key := fmt.Sprintf("tournaments/%d/banner", id)
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament banner: %w", err)
	}
	if err := s.tournamentRepo.UpdateBannerKey(ctx, id, &result.Key); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	t.BannerKey = &result.Key
	s.attachBannerURL(t)
	return t, nil
}

func (s *tournamentService) attachBannerURL(t *models.Tournament) {
	if s.uploader == nil || t.BannerKey == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.BannerKey); url != "" {
		t.BannerURL = &url
	}
}

func mapTournamentRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameConflict
	case errors.Is(err, repositories.ErrTournamentInvalidCreator):
		return ErrUserNotFound
	default:
		return err
	}
}
