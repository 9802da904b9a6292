package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/store"
)

// MockUserStore implements store.UserStore for testing
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn      func(ctx context.Context, name string) (*domain.UserRecord, error)
	ListFn        func(ctx context.Context) ([]domain.UserRecord, error)
	GetByIDFn     func(ctx context.Context, id int64) (*domain.UserRecord, error)
	UpdateNameFn  func(ctx context.Context, id int64, name string) (*domain.UserRecord, error)
	DeleteFn      func(ctx context.Context, id int64) error
	SetFilePathFn func(ctx context.Context, id int64, path string) (*domain.UserRecord, error)

	mu     sync.Mutex
	users  map[int64]domain.UserRecord
	nextID int64
	calls  map[string]int
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[int64]domain.UserRecord),
		calls: make(map[string]int),
	}
}

// Seed inserts a record directly and returns it.
func (m *MockUserStore) Seed(name string, filePath *string) domain.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u := domain.UserRecord{ID: m.nextID, Name: name, FilePath: filePath}
	m.users[u.ID] = u
	return u
}

// Calls reports how many times method was invoked.
func (m *MockUserStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockUserStore) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, name string) (*domain.UserRecord, error) {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, name)
	}
	u := m.Seed(name, nil)
	return &u, nil
}

// List implements the UserStore interface
func (m *MockUserStore) List(ctx context.Context) ([]domain.UserRecord, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserRecord, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*domain.UserRecord, error) {
	m.record("GetByID")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// UpdateName implements the UserStore interface
func (m *MockUserStore) UpdateName(ctx context.Context, id int64, name string) (*domain.UserRecord, error) {
	m.record("UpdateName")
	if m.UpdateNameFn != nil {
		return m.UpdateNameFn(ctx, id, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u.Name = name
	m.users[id] = u
	return &u, nil
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// SetFilePath implements the UserStore interface
func (m *MockUserStore) SetFilePath(ctx context.Context, id int64, path string) (*domain.UserRecord, error) {
	m.record("SetFilePath")
	if m.SetFilePathFn != nil {
		return m.SetFilePathFn(ctx, id, path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	p := path
	u.FilePath = &p
	m.users[id] = u
	return &u, nil
}
