package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/userfile-api/internal/task"
)

// MockEnqueuer records enqueued jobs. Err, when set, is returned for every call.
type MockEnqueuer struct {
	EnqueueFn func(ctx context.Context, job task.Job) error
	Err       error

	mu   sync.Mutex
	jobs []task.Job
}

// Enqueue implements task.Enqueuer
func (m *MockEnqueuer) Enqueue(ctx context.Context, job task.Job) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, job)
	}
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

// Jobs returns a copy of the accepted jobs.
func (m *MockEnqueuer) Jobs() []task.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Job(nil), m.jobs...)
}
