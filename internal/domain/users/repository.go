package users

import (
	"context"
	"errors"

	"github.com/eventforge/server/internal/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSelfRevocation     = errors.New("cannot revoke your own privileges")
	ErrRoleUnchanged      = errors.New("user already has that role")
)

type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListManagers(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id int64, role auth.Role) (*User, error)
}
