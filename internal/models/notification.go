package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Subject   string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time // nil while unread
}
