package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandler records calls and fails the first failures attempts per job.
type fakeHandler struct {
	mu       sync.Mutex
	attempts map[string]int
	failed   map[string]error
	failures int
	err      error
	done     chan string
}

func newFakeHandler(failures int, err error) *fakeHandler {
	return &fakeHandler{
		attempts: map[string]int{},
		failed:   map[string]error{},
		failures: failures,
		err:      err,
		done:     make(chan string, 100),
	}
}

func (h *fakeHandler) Process(_ context.Context, job Job) error {
	h.mu.Lock()
	h.attempts[job.ID()]++
	n := h.attempts[job.ID()]
	h.mu.Unlock()

	if n <= h.failures {
		return h.err
	}
	h.done <- job.ID()
	return nil
}

func (h *fakeHandler) Fail(_ context.Context, job Job, err error) {
	h.mu.Lock()
	h.failed[job.ID()] = err
	h.mu.Unlock()
	h.done <- job.ID()
}

func (h *fakeHandler) attemptsFor(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts[id]
}

func (h *fakeHandler) failureFor(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed[id]
}

func waitFor(t *testing.T, ch <-chan string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
}

func testPoolConfig(workers, maxRetry int) WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: workers, MaxRetry: maxRetry, RetryBase: time.Millisecond}
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	p := NewWorkerPool(q, newFakeHandler(0, nil), WorkerPoolConfig{WorkerCount: -1, MaxRetry: -2}, nil)

	assert.Equal(t, 1, p.config.WorkerCount)
	assert.Equal(t, 0, p.config.MaxRetry)
	assert.Equal(t, DefaultWorkerPoolConfig().RetryBase, p.config.RetryBase)
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	q := NewTaskQueue(10, SaturationReject, nil)
	h := newFakeHandler(0, nil)
	p := NewWorkerPool(q, h, testPoolConfig(3, 0), nil)
	p.Start()
	p.Start()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), testJob(i)))
	}
	waitFor(t, h.done, 5)

	q.Close()
	p.Stop(context.Background())

	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, h.attemptsFor(testJob(i).JobID))
	}
}

func TestWorkerPool_RetriesTransientFailures(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	h := newFakeHandler(2, errors.New("temporarily unavailable"))
	p := NewWorkerPool(q, h, testPoolConfig(1, 3), nil)
	p.Start()

	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))
	waitFor(t, h.done, 1)

	q.Close()
	p.Stop(context.Background())

	assert.Equal(t, 3, h.attemptsFor("job-1"))
	assert.NoError(t, h.failureFor("job-1"))
}

func TestWorkerPool_FailsAfterRetriesExhausted(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	cause := errors.New("disk full")
	h := newFakeHandler(100, cause)
	p := NewWorkerPool(q, h, testPoolConfig(1, 2), nil)
	p.Start()

	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))
	waitFor(t, h.done, 1)

	q.Close()
	p.Stop(context.Background())

	assert.Equal(t, 3, h.attemptsFor("job-1"))
	assert.ErrorIs(t, h.failureFor("job-1"), cause)
}

func TestWorkerPool_PermanentErrorSkipsRetries(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	h := newFakeHandler(100, Permanent(errors.New("not an image")))
	p := NewWorkerPool(q, h, testPoolConfig(1, 5), nil)
	p.Start()

	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))
	waitFor(t, h.done, 1)

	q.Close()
	p.Stop(context.Background())

	assert.Equal(t, 1, h.attemptsFor("job-1"))
	assert.True(t, IsPermanent(h.failureFor("job-1")))
}

// blockingHandler runs until its context is cancelled.
type blockingHandler struct {
	started chan struct{}
	failed  chan error
}

func (b *blockingHandler) Process(ctx context.Context, _ Job) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingHandler) Fail(_ context.Context, _ Job, err error) {
	b.failed <- err
}

func TestWorkerPool_StopTimeoutCancelsInFlight(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	h := &blockingHandler{started: make(chan struct{}), failed: make(chan error, 1)}
	p := NewWorkerPool(q, h, testPoolConfig(1, 0), nil)
	p.Start()

	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))
	<-h.started
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Stop(ctx)

	select {
	case err := <-h.failed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled job was not marked failed")
	}
}
