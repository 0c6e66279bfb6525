package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user may hold. Exactly one per user.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	Role           string

	// Account status flags, each independently togglable
	Enabled            bool
	Locked             bool
	CredentialsExpired bool

	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

// Principal is the in-memory identity attached to a request.
// Built from access token claims, never persisted.
type Principal struct {
	UserID      uuid.UUID
	Username    string
	Email       string
	Authorities []string
}

func NewPrincipal(u User) Principal {
	return Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Authorities: []string{u.Role},
	}
}

func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
