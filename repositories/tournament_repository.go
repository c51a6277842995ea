package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chessarena/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNameConflict   = errors.New("tournament name conflict for this creator")
	ErrTournamentInvalidCreator = errors.New("invalid creator reference")
	ErrTournamentInUse          = errors.New("tournament is in use (inscriptions/matches exist)")
)

type ListTournamentsFilter struct {
	Status    *models.TournamentStatus
	Format    *models.TournamentFormat
	CreatorID *int
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateTotalRounds(ctx context.Context, exec SQLExecutor, id, totalRounds int) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	// TransferOwnership reassigns every tournament created by fromUserID to
	// toUserID (or clears the creator when toUserID is nil).
	TransferOwnership(ctx context.Context, exec SQLExecutor, fromUserID int, toUserID *int) error
	// ListForStatusSweep returns the tournaments the lifecycle scheduler has
	// to look at: upcoming ones whose start date has elapsed, plus every
	// ongoing one.
	ListForStatusSweep(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, description, creator_id, format, status,
	start_date, end_date, registration_deadline, max_participants, total_rounds,
	banner_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, creator_id, format, status,
			start_date, end_date, registration_deadline, max_participants, total_rounds, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.CreatorID, t.Format, t.Status,
		t.StartDate, t.EndDate, t.RegistrationDeadline, t.MaxParticipants, t.TotalRounds, t.BannerKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Format, &t.Status,
		&t.StartDate, &t.EndDate, &t.RegistrationDeadline, &t.MaxParticipants, &t.TotalRounds,
		&t.BannerKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}
	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Format, &t.Status,
			&t.StartDate, &t.EndDate, &t.RegistrationDeadline, &t.MaxParticipants, &t.TotalRounds,
			&t.BannerKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			format = $3,
			start_date = $4,
			end_date = $5,
			registration_deadline = $6,
			max_participants = $7,
			total_rounds = $8
		WHERE id = $9`

	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Description, t.Format,
		t.StartDate, t.EndDate, t.RegistrationDeadline, t.MaxParticipants, t.TotalRounds,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateTotalRounds(ctx context.Context, exec SQLExecutor, id, totalRounds int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET total_rounds = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, totalRounds, id)
	if err != nil {
		return fmt.Errorf("failed to update total rounds for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) TransferOwnership(ctx context.Context, exec SQLExecutor, fromUserID int, toUserID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET creator_id = $1 WHERE creator_id = $2`
	if _, err := executor.ExecContext(ctx, query, toUserID, fromUserID); err != nil {
		return fmt.Errorf("failed to transfer tournaments from user %d: %w", fromUserID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) ListForStatusSweep(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND start_date <= $2) OR status = $3
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.StatusUpcoming, currentTime, models.StatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for status sweep: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Format, &t.Status,
			&t.StartDate, &t.EndDate, &t.RegistrationDeadline, &t.MaxParticipants, &t.TotalRounds,
			&t.BannerKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for status sweep: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during status sweep rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_creator_id_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "tournaments_creator_id_fkey":
				return ErrTournamentInvalidCreator
			default:
				return ErrTournamentInUse
			}
		}
	}
	return err
}
