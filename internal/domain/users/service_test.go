package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventforge/server/internal/auth"
	"github.com/eventforge/server/internal/domain/users"
	"github.com/eventforge/server/internal/storage/memory"
)

func newService(t *testing.T) (*users.Service, *memory.Repository) {
	t.Helper()
	store := memory.NewRepository()
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour, "eventforge")
	return users.NewService(store.Users(), tokens, zerolog.Nop()), store
}

func register(t *testing.T, service *users.Service, username string) *users.User {
	t.Helper()
	user, err := service.Register(context.Background(), users.RegisterParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAssignsUserRole(t *testing.T) {
	service, _ := newService(t)
	user := register(t, service, "bob")
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _ := newService(t)
	register(t, service, "bob")

	_, err := service.Register(context.Background(), users.RegisterParams{
		Username: "bob",
		Email:    "other@example.com",
		Password: "pw",
	})
	assert.ErrorIs(t, err, users.ErrUsernameTaken)

	_, err = service.Register(context.Background(), users.RegisterParams{
		Username: "robert",
		Email:    "bob@example.com",
		Password: "pw",
	})
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestCreatePublisher(t *testing.T) {
	service, _ := newService(t)
	user, err := service.CreatePublisher(context.Background(), users.RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RolePublisher, user.Role)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	service, _ := newService(t)
	register(t, service, "bob")

	user, pair, err := service.Login(context.Background(), "bob@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestLoginUniformFailure(t *testing.T) {
	service, _ := newService(t)
	register(t, service, "bob")

	_, _, err := service.Login(context.Background(), "bob@example.com", "wrong")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)

	_, _, err = service.Login(context.Background(), "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	service, _ := newService(t)
	register(t, service, "bob")

	_, pair, err := service.Login(context.Background(), "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	access, err := service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// An access token is not accepted as a refresh credential.
	_, err = service.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResolveIdentity(t *testing.T) {
	service, _ := newService(t)
	user := register(t, service, "bob")

	identity, err := service.ResolveIdentity(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, auth.RoleUser, identity.Role)

	_, err = service.ResolveIdentity(context.Background(), 999)
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestChangeRolePromoteAndRevoke(t *testing.T) {
	service, _ := newService(t)
	admin, err := service.CreatePublisher(context.Background(), users.RegisterParams{
		Username: "root", Email: "root@example.com", Password: "pw",
	})
	require.NoError(t, err)
	// Promote the bootstrap account to admin directly for the test.
	adminUser, err := service.ChangeRole(context.Background(), nil, admin.ID, auth.RoleAdmin)
	require.NoError(t, err)
	actor := adminUser.Identity()

	target := register(t, service, "bob")

	promoted, err := service.ChangeRole(context.Background(), actor, target.ID, auth.RolePublisher)
	require.NoError(t, err)
	assert.Equal(t, auth.RolePublisher, promoted.Role)

	// No-op transition is rejected.
	_, err = service.ChangeRole(context.Background(), actor, target.ID, auth.RolePublisher)
	assert.ErrorIs(t, err, users.ErrRoleUnchanged)

	revoked, err := service.ChangeRole(context.Background(), actor, target.ID, auth.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, revoked.Role)
}

func TestChangeRoleSelfRevocationRejected(t *testing.T) {
	service, store := newService(t)
	adminRecord, err := store.Users().Create(context.Background(), users.CreateParams{
		Username: "root", Email: "root@example.com", PasswordHash: "x", Role: auth.RoleAdmin,
	})
	require.NoError(t, err)
	actor := adminRecord.Identity()

	_, err = service.ChangeRole(context.Background(), actor, actor.UserID, auth.RoleUser)
	assert.ErrorIs(t, err, users.ErrSelfRevocation)

	// The stored role is untouched.
	got, err := store.Users().GetByID(context.Background(), actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, got.Role)
}

func TestChangeRoleUnknownUser(t *testing.T) {
	service, _ := newService(t)
	_, err := service.ChangeRole(context.Background(), nil, 999, auth.RolePublisher)
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestListPublishersIncludesAdmins(t *testing.T) {
	service, store := newService(t)
	register(t, service, "bob")
	_, err := service.CreatePublisher(context.Background(), users.RegisterParams{
		Username: "alice", Email: "alice@example.com", Password: "pw",
	})
	require.NoError(t, err)
	_, err = store.Users().Create(context.Background(), users.CreateParams{
		Username: "root", Email: "root@example.com", PasswordHash: "x", Role: auth.RoleAdmin,
	})
	require.NoError(t, err)

	managers, err := service.ListPublishers(context.Background())
	require.NoError(t, err)
	assert.Len(t, managers, 2)
}
