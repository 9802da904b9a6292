package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/userfile-api/internal/cache"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/mocks"
	"github.com/phrazzld/userfile-api/internal/service"
	"github.com/phrazzld/userfile-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		svc := service.NewUserService(users, nil, service.UserServiceOptions{}, quietLogger())

		user, err := svc.CreateUser(ctx, "alice")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "alice", user.Name)
		assert.Nil(t, user.FilePath)
	})

	t.Run("invalid name never reaches the store", func(t *testing.T) {
		users := new(mocks.TestifyMockUserStore)
		svc := service.NewUserService(users, nil, service.UserServiceOptions{}, quietLogger())

		_, err := svc.CreateUser(ctx, "   ")

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		users := new(mocks.TestifyMockUserStore)
		users.On("Create", mock.Anything, "bob").Return(nil, errors.New("connection refused"))
		svc := service.NewUserService(users, nil, service.UserServiceOptions{}, quietLogger())

		_, err := svc.CreateUser(ctx, "bob")

		assert.ErrorIs(t, err, service.ErrStore)
		users.AssertExpectations(t)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	users := mocks.NewMockUserStore()
	users.Seed("a", nil)
	users.Seed("b", nil)
	svc := service.NewUserService(users, nil, service.UserServiceOptions{}, quietLogger())

	got, err := svc.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}

func TestUserService_RenameUser(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	existing := users.Seed("old", nil)
	svc := service.NewUserService(users, nil, service.UserServiceOptions{}, quietLogger())

	t.Run("success", func(t *testing.T) {
		user, err := svc.RenameUser(ctx, existing.ID, "new")
		require.NoError(t, err)
		assert.Equal(t, "new", user.Name)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.RenameUser(ctx, 999, "x")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.NotErrorIs(t, err, service.ErrStore)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.RenameUser(ctx, existing.ID, "")
		assert.ErrorIs(t, err, domain.ErrEmptyName)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	path := "uploads/x.txt"

	t.Run("unknown user", func(t *testing.T) {
		svc := service.NewUserService(mocks.NewMockUserStore(), nil, service.UserServiceOptions{}, quietLogger())
		assert.ErrorIs(t, svc.DeleteUser(ctx, 42), store.ErrUserNotFound)
	})

	t.Run("cache entry survives by default", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		u := users.Seed("a", &path)
		layer := cache.NewLayer(cache.NewMemoryStore(), 0, quietLogger())
		layer.SetUserFilePath(ctx, u.ID, path)
		svc := service.NewUserService(users, layer, service.UserServiceOptions{}, quietLogger())

		require.NoError(t, svc.DeleteUser(ctx, u.ID))

		got, ok := layer.UserFilePath(ctx, u.ID)
		assert.True(t, ok)
		assert.Equal(t, path, got)
	})

	t.Run("cache entry evicted when configured", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		u := users.Seed("a", &path)
		layer := cache.NewLayer(cache.NewMemoryStore(), 0, quietLogger())
		layer.SetUserFilePath(ctx, u.ID, path)
		svc := service.NewUserService(users, layer,
			service.UserServiceOptions{InvalidateOnDelete: true}, quietLogger())

		require.NoError(t, svc.DeleteUser(ctx, u.ID))

		_, ok := layer.UserFilePath(ctx, u.ID)
		assert.False(t, ok)
	})
}

func TestNewUserService_RequiresCacheForInvalidation(t *testing.T) {
	assert.Panics(t, func() {
		service.NewUserService(mocks.NewMockUserStore(), nil,
			service.UserServiceOptions{InvalidateOnDelete: true}, nil)
	})
}
