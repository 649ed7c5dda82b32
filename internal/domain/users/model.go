package users

import (
	"time"

	"github.com/eventforge/server/internal/auth"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the stored record into the context identity used by
// access checks.
func (u *User) Identity() *auth.Identity {
	return &auth.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
