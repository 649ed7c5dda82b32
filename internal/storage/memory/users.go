package memory

import (
	"context"
	"time"

	"github.com/eventforge/server/internal/auth"
	"github.com/eventforge/server/internal/domain/users"
)

type userStore struct {
	repo *Repository
}

var _ users.Repository = (*userStore)(nil)

func (s *userStore) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	for _, existing := range s.repo.users {
		if existing.Username == params.Username {
			return nil, users.ErrUsernameTaken
		}
		if existing.Email == params.Email {
			return nil, users.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	user := &users.User{
		ID:           s.repo.nextUserID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.repo.nextUserID++
	s.repo.users[user.ID] = user

	copied := *user
	return &copied, nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*users.User, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	user, ok := s.repo.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.find(func(u *users.User) bool { return u.Email == email })
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.find(func(u *users.User) bool { return u.Username == username })
}

func (s *userStore) find(match func(*users.User) bool) (*users.User, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	for _, user := range s.repo.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *userStore) List(ctx context.Context) ([]users.User, error) {
	return s.collect(func(*users.User) bool { return true })
}

func (s *userStore) ListManagers(ctx context.Context) ([]users.User, error) {
	return s.collect(func(u *users.User) bool { return u.Role.IsManager() })
}

func (s *userStore) collect(match func(*users.User) bool) ([]users.User, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	var items []users.User
	for id := int64(1); id < s.repo.nextUserID; id++ {
		if user, ok := s.repo.users[id]; ok && match(user) {
			items = append(items, *user)
		}
	}
	return items, nil
}

func (s *userStore) UpdateRole(ctx context.Context, id int64, role auth.Role) (*users.User, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	user, ok := s.repo.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()

	copied := *user
	return &copied, nil
}
