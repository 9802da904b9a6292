package mocks

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrMockStorage is the default failure returned by MockFileStorage when
// Fail is set.
var ErrMockStorage = errors.New("mock storage failure")

// MockFileStorage keeps written files in memory.
type MockFileStorage struct {
	// Fail makes every write return ErrMockStorage.
	Fail bool
	// Name is returned as the generated name by SaveUpload. Defaults to "generated".
	Name string

	mu      sync.Mutex
	files   map[string][]byte
	removed []string
}

// NewMockFileStorage creates an empty MockFileStorage.
func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{files: make(map[string][]byte)}
}

// SaveUpload writes to "uploads/<Name>".
func (m *MockFileStorage) SaveUpload(_ context.Context, _ string, r io.Reader) (string, string, error) {
	name := m.Name
	if name == "" {
		name = "generated"
	}
	path := "uploads/" + name
	if err := m.write(path, r); err != nil {
		return "", "", err
	}
	return path, name, nil
}

// SaveTemp writes to "tmp/<id>_<filename>".
func (m *MockFileStorage) SaveTemp(_ context.Context, id, filename string, r io.Reader) (string, error) {
	path := "tmp/" + id + "_" + filename
	if err := m.write(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes path.
func (m *MockFileStorage) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

// File returns the bytes stored at path.
func (m *MockFileStorage) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	return b, ok
}

// Count returns the number of stored files.
func (m *MockFileStorage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Removed lists paths passed to Remove.
func (m *MockFileStorage) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *MockFileStorage) write(path string, r io.Reader) error {
	if m.Fail {
		return ErrMockStorage
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}
