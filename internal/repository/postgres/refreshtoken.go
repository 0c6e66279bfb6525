package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, token, created_at, expires_at, revoked_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.RevokedAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getToken = `-- name: GetRefreshToken
SELECT id, user_id, token, created_at, expires_at, revoked_at
FROM refresh_tokens
WHERE token = $1
`

// Get token by the token string itself
// Returns the row even if it is expired or revoked already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRefreshToken
UPDATE refresh_tokens
SET revoked_at = COALESCE(revoked_at, $2)
WHERE token = $1
RETURNING id, user_id, token, created_at, expires_at, revoked_at
`

// Revoke token and return it
// Revocation is monotonic: an already revoked token keeps its original
// RevokedAt and the call returns apperrors.ErrRefreshTokenRevoked
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	// Postgres keeps microseconds, so compare at that precision
	now := time.Now().Truncate(time.Microsecond)
	rows, _ := r.DB.Query(ctx, revokeToken, tokenString, now)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil && token.RevokedAt != nil && token.RevokedAt.Equal(now):
		return token, nil
	case err == nil: // RevokedAt != now means the token was revoked before
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeAllForUser = `-- name: RevokeAllForUser
UPDATE refresh_tokens
SET revoked_at = $2
WHERE user_id = $1 AND revoked_at IS NULL
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, revokeAllForUser, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const deleteUnusable = `-- name: DeleteUnusableRefreshTokens
DELETE FROM refresh_tokens
WHERE expires_at < $1 OR revoked_at IS NOT NULL
`

// Delete rows that can never validate again
// Safe to run concurrently with live traffic: only provably unusable rows go
func (r *RefreshTokenRepo) DeleteUnusable(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteUnusable, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt)
	return t, err
}
