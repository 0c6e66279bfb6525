package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
)

type FavoriteRepo struct {
	DB DBTX
}

const addFavorite = `-- name: AddFavorite
INSERT INTO favorites (user_id, job_id)
VALUES ($1, $2)
RETURNING user_id, job_id, created_at
`

func (r *FavoriteRepo) Add(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) (models.Favorite, error) {
	rows, _ := r.DB.Query(ctx, addFavorite, userID, jobID)
	favorite, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Favorite, error) {
		var f models.Favorite
		err := row.Scan(&f.UserID, &f.JobID, &f.CreatedAt)
		return f, err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return favorite, apperrors.ErrFavoriteExists
			case pgerrcode.ForeignKeyViolation:
				return favorite, apperrors.ErrJobNotFound
			}
		}

		return favorite, fmt.Errorf("db error: %w", err)
	}

	return favorite, nil
}

const removeFavorite = `-- name: RemoveFavorite
DELETE FROM favorites
WHERE user_id = $1 AND job_id = $2
`

func (r *FavoriteRepo) Remove(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, removeFavorite, userID, jobID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFavoriteNotFound
	}
	return nil
}

const listFavoriteJobs = `-- name: ListFavoriteJobs
SELECT j.id, j.name, j.description, j.schedule, j.enabled,
       j.created_at, j.updated_at, j.created_by, j.updated_by
FROM favorites f
JOIN jobs j ON j.id = f.job_id
WHERE f.user_id = $1
ORDER BY f.created_at DESC
`

func (r *FavoriteRepo) ListJobsByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	rows, _ := r.DB.Query(ctx, listFavoriteJobs, userID)
	jobs, err := pgx.CollectRows(rows, rowToJob)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return jobs, nil
}

const listFavoriteUsers = `-- name: ListFavoriteUsers
SELECT u.id, u.username, u.email, u.password_hash, u.role,
       u.enabled, u.locked, u.credentials_expired,
       u.created_at, u.updated_at, u.created_by, u.updated_by
FROM favorites f
JOIN users u ON u.id = f.user_id
WHERE f.job_id = $1
ORDER BY u.username
`

func (r *FavoriteRepo) ListUsersByJob(ctx context.Context, jobID uuid.UUID) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listFavoriteUsers, jobID)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}
