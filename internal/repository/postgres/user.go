package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, username, email, password_hash, role,
       enabled, locked, credentials_expired,
       created_at, updated_at, created_by, updated_by`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, password_hash, role, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), params.Username, params.Email, params.HashedPassword, params.Role, params.CreatedBy)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return user, apperrors.ErrEmailAlreadyExists
			}
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + `
FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + `
FROM users
ORDER BY username
LIMIT $1 OFFSET $2
`

func (r *UserRepo) ListUsers(ctx context.Context, opts repository.ListUsersOpts) ([]models.User, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	rows, _ := r.DB.Query(ctx, listUsers, opts.Limit, opts.Offset)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET role                = COALESCE($2, role),
    enabled             = COALESCE($3, enabled),
    locked              = COALESCE($4, locked),
    credentials_expired = COALESCE($5, credentials_expired),
    updated_by          = $6,
    updated_at          = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params repository.UpdateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser,
		userID, params.Role, params.Enabled, params.Locked, params.CredentialsExpired, params.UpdatedBy)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const countUsers = `-- name: CountUsers
SELECT count(*) FROM users
`

func (r *UserRepo) CountUsers(ctx context.Context) (int64, error) {
	rows, _ := r.DB.Query(ctx, countUsers)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role,
		&u.Enabled, &u.Locked, &u.CredentialsExpired,
		&u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy,
	)
	return u, err
}
