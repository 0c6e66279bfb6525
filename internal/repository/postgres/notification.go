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

type NotificationRepo struct {
	DB DBTX
}

const createNotification = `-- name: CreateNotification
INSERT INTO notifications (id, user_id, subject, body)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, subject, body, created_at, read_at
`

func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createNotification, n.ID, n.UserID, n.Subject, n.Body)
	saved, err := pgx.CollectOneRow(rows, rowToNotification)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const listNotifications = `-- name: ListNotifications
SELECT id, user_id, subject, body, created_at, read_at
FROM notifications
WHERE user_id = $1
  AND (NOT $2 OR read_at IS NULL)
ORDER BY created_at DESC
`

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	rows, _ := r.DB.Query(ctx, listNotifications, userID, unreadOnly)
	notifications, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return notifications, nil
}

const markNotificationRead = `-- name: MarkNotificationRead
UPDATE notifications
SET read_at = COALESCE(read_at, $3)
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, subject, body, created_at, read_at
`

// Mark notification read. Keeps the original read_at if set already,
// so re-reading never moves the timestamp
func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error) {
	rows, _ := r.DB.Query(ctx, markNotificationRead, id, userID, time.Now())
	notification, err := pgx.CollectOneRow(rows, rowToNotification)

	switch {
	case err == nil:
		return notification, nil
	case errors.Is(err, pgx.ErrNoRows):
		return notification, apperrors.ErrNotificationNotFound
	default:
		return notification, fmt.Errorf("db error: %w", err)
	}
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Subject, &n.Body, &n.CreatedAt, &n.ReadAt)
	return n, err
}
