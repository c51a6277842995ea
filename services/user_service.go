package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
	"github.com/chessarena/tournament-system/storage"
)

type UpdateUserInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error)
	UploadAvatar(ctx context.Context, id int, contentType string, r io.Reader) (*models.User, error)
	// Delete removes an account. Users who authored tournaments or played
	// matches are anonymized instead of hard-deleted, and their authored
	// tournaments move to an admin (or lose their creator when none exists).
	Delete(ctx context.Context, id int) error
}

type userService struct {
	txRunner       repositories.TxRunner
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewUserService(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		txRunner:       txRunner,
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	if s.uploader != nil && user.AvatarKey != nil {
		if url := s.uploader.GetPublicURL(*user.AvatarKey); url != "" {
			user.AvatarURL = &url
		}
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Deleted {
		return nil, ErrUserNotFound
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, id int, contentType string, r io.Reader) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("users/%d/avatar", id)
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload user avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatarKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}
	user.AvatarKey = &result.Key
	if url := s.uploader.GetPublicURL(result.Key); url != "" {
		user.AvatarURL = &url
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Deleted {
		return ErrUserNotFound
	}

	hasHistory, err := s.userRepo.HasHistory(ctx, id)
	if err != nil {
		return err
	}
	if !hasHistory {
		return s.userRepo.Delete(ctx, id)
	}

	// Historical matches must keep valid references: anonymize in place and
	// hand authored tournaments to an admin, all in one transaction.
	var newOwnerID *int
	admin, err := s.userRepo.FirstAdmin(ctx, id)
	switch {
	case err == nil:
		newOwnerID = &admin.ID
	case errors.Is(err, repositories.ErrUserNotFound):
		// No admin left; authored tournaments lose their creator.
	default:
		return err
	}

	placeholderEmail := fmt.Sprintf("deleted-user-%d@removed.invalid", id)
	err = s.txRunner.WithTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.TransferOwnership(ctx, exec, id, newOwnerID); err != nil {
			return err
		}
		return s.userRepo.Anonymize(ctx, exec, id, "Deleted Player", placeholderEmail)
	})
	if err != nil {
		return err
	}

	s.logger.Info("user anonymized", slog.Int("user_id", id))
	return nil
}
