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
	ErrInscriptionNotFound   = errors.New("inscription not found")
	ErrInscriptionConflict   = errors.New("user is already inscribed in this tournament")
	ErrInscriptionInvalidRef = errors.New("inscription references a missing user or tournament")
)

type InscriptionRepository interface {
	Create(ctx context.Context, inscription *models.Inscription) error
	GetByID(ctx context.Context, id int) (*models.Inscription, error)
	// ListByTournament returns inscriptions in registration order, each with
	// the inscribed user's name and rating joined in.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Inscription, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	Delete(ctx context.Context, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresInscriptionRepository struct {
	db *sql.DB
}

func NewPostgresInscriptionRepository(db *sql.DB) InscriptionRepository {
	return &postgresInscriptionRepository{db: db}
}

func (r *postgresInscriptionRepository) Create(ctx context.Context, i *models.Inscription) error {
	query := `
		INSERT INTO inscriptions (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, i.TournamentID, i.UserID).Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "inscriptions_tournament_id_user_id_key" {
					return ErrInscriptionConflict
				}
			case "23503":
				return ErrInscriptionInvalidRef
			}
		}
		return err
	}
	return nil
}

func (r *postgresInscriptionRepository) GetByID(ctx context.Context, id int) (*models.Inscription, error) {
	query := `
		SELECT id, tournament_id, user_id, created_at
		FROM inscriptions
		WHERE id = $1`

	i := &models.Inscription{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&i.ID, &i.TournamentID, &i.UserID, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInscriptionNotFound
		}
		return nil, fmt.Errorf("failed to scan inscription by id %d: %w", id, err)
	}
	return i, nil
}

func (r *postgresInscriptionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Inscription, error) {
	query := `
		SELECT
			i.id, i.tournament_id, i.user_id, i.created_at,
			u.id, u.first_name, u.last_name, u.role, u.rating, u.deleted, u.created_at
		FROM inscriptions i
		JOIN users u ON i.user_id = u.id
		WHERE i.tournament_id = $1
		ORDER BY i.created_at ASC, i.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inscriptions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	inscriptions := make([]*models.Inscription, 0)
	for rows.Next() {
		var i models.Inscription
		var u models.User
		if scanErr := rows.Scan(
			&i.ID, &i.TournamentID, &i.UserID, &i.CreatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.Rating, &u.Deleted, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan inscription row: %w", scanErr)
		}
		i.User = &u
		inscriptions = append(inscriptions, &i)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during inscription rows iteration: %w", err)
	}
	return inscriptions, nil
}

func (r *postgresInscriptionRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM inscriptions WHERE tournament_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count inscriptions for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresInscriptionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM inscriptions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInscriptionNotFound)
}

func (r *postgresInscriptionRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `DELETE FROM inscriptions WHERE tournament_id = $1`
	if _, err := exec.ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete inscriptions for tournament %d: %w", tournamentID, err)
	}
	return nil
}
