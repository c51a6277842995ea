package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chessarena/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
	ErrUserInUse         = errors.New("user is referenced by tournaments or matches")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRating(ctx context.Context, exec SQLExecutor, id, rating int) error
	// HasHistory reports whether the user authored tournaments or played
	// matches. Such users may only be soft-deleted.
	HasHistory(ctx context.Context, id int) (bool, error)
	// FirstAdmin returns the oldest admin account, excluding the given user
	// id. ErrUserNotFound when no admin exists.
	FirstAdmin(ctx context.Context, excludeID int) (*models.User, error)
	// Anonymize soft-deletes the user: name, email and password are
	// overwritten and the deleted flag is set.
	Anonymize(ctx context.Context, exec SQLExecutor, id int, name, email string) error
	Delete(ctx context.Context, id int) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, first_name, last_name, email, password_hash, role, rating, deleted, avatar_key, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Rating,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			first_name = $1,
			last_name = $2,
			email = $3,
			password_hash = $4,
			role = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateRating(ctx context.Context, exec SQLExecutor, id, rating int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET rating = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, rating, id)
	if err != nil {
		return fmt.Errorf("failed to update rating for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) HasHistory(ctx context.Context, id int) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM tournaments WHERE creator_id = $1)
			OR EXISTS (SELECT 1 FROM matches WHERE white_id = $1 OR black_id = $1)`

	var has bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&has); err != nil {
		return false, fmt.Errorf("failed to check user %d history: %w", id, err)
	}
	return has, nil
}

func (r *postgresUserRepository) FirstAdmin(ctx context.Context, excludeID int) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND deleted = FALSE AND id <> $2
		ORDER BY id ASC
		LIMIT 1`
	return r.scanUser(ctx, query, models.RoleAdmin, excludeID)
}

func (r *postgresUserRepository) Anonymize(ctx context.Context, exec SQLExecutor, id int, name, email string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE users SET
			first_name = $1,
			last_name = '',
			email = $2,
			password_hash = '',
			avatar_key = NULL,
			deleted = TRUE
		WHERE id = $3 AND deleted = FALSE`

	result, err := executor.ExecContext(ctx, query, name, email, id)
	if err != nil {
		return fmt.Errorf("failed to anonymize user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		// A foreign key violation means the user still has tournaments or
		// matches attached and must be soft-deleted instead.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrUserInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update user avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Rating,
		&user.Deleted,
		&user.AvatarKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
