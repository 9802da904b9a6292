package mocks

import (
	"context"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore interface for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*domain.UserRecord, error) {
	if user, ok := args.Get(0).(*domain.UserRecord); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, name string) (*domain.UserRecord, error) {
	return userResult(m.Called(ctx, name))
}

// List is a mock implementation of store.UserStore.List
func (m *TestifyMockUserStore) List(ctx context.Context) ([]domain.UserRecord, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]domain.UserRecord); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *TestifyMockUserStore) GetByID(ctx context.Context, id int64) (*domain.UserRecord, error) {
	return userResult(m.Called(ctx, id))
}

// UpdateName is a mock implementation of store.UserStore.UpdateName
func (m *TestifyMockUserStore) UpdateName(ctx context.Context, id int64, name string) (*domain.UserRecord, error) {
	return userResult(m.Called(ctx, id, name))
}

// Delete is a mock implementation of store.UserStore.Delete
func (m *TestifyMockUserStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// SetFilePath is a mock implementation of store.UserStore.SetFilePath
func (m *TestifyMockUserStore) SetFilePath(ctx context.Context, id int64, path string) (*domain.UserRecord, error) {
	return userResult(m.Called(ctx, id, path))
}
