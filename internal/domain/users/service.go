package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventforge/server/internal/auth"
	"github.com/rs/zerolog"
)

// Service handles account lifecycle and session credentials.
type Service struct {
	repo   Repository
	tokens *auth.TokenManager
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// TokenPair is the credential set issued on login: a short-lived access
// token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a regular user account. Publisher and admin accounts
// are never created through public sign-up.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	return s.create(ctx, params, auth.RoleUser)
}

// CreatePublisher creates a publisher account on behalf of an admin.
func (s *Service) CreatePublisher(ctx context.Context, params RegisterParams) (*User, error) {
	return s.create(ctx, params, auth.RolePublisher)
}

func (s *Service) create(ctx context.Context, params RegisterParams, role auth.Role) (*User, error) {
	if _, err := s.repo.GetByUsername(ctx, params.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", role.String()).Msg("user created")
	return user, nil
}

// Login verifies the password and issues an access/refresh token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateAccess(user.ID, user.Role)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefresh(user.ID)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return user, TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// password is not involved; the subject is re-resolved so a deleted user
// cannot keep minting sessions.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", auth.ErrInvalidToken
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	return s.tokens.GenerateAccess(user.ID, user.Role)
}

// ResolveIdentity maps a verified token subject to a live identity.
func (s *Service) ResolveIdentity(ctx context.Context, userID int64) (*auth.Identity, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ListPublishers returns every account that can own events, admins included.
func (s *Service) ListPublishers(ctx context.Context) ([]User, error) {
	return s.repo.ListManagers(ctx)
}

// ChangeRole sets a user's role. Only admins reach this operation; the
// self-protection rule is enforced here so an admin can never demote
// themselves, and no-op transitions are rejected before any mutation.
func (s *Service) ChangeRole(ctx context.Context, actor *auth.Identity, targetID int64, newRole auth.Role) (*User, error) {
	if actor != nil && actor.UserID == targetID && newRole < actor.Role {
		return nil, ErrSelfRevocation
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return nil, ErrRoleUnchanged
	}

	updated, err := s.repo.UpdateRole(ctx, targetID, newRole)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", targetID).
		Str("from", target.Role.String()).
		Str("to", newRole.String()).
		Msg("role changed")
	return updated, nil
}
