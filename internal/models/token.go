package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil while the token is still live
}

// Revoked reports whether the token was revoked (logout or rotation).
// Revocation is monotonic: once set it is never cleared.
func (t RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
