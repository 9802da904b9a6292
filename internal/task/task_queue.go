package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// Saturation decides what Enqueue does when the buffer is full.
type Saturation string

// Saturation policies.
const (
	// SaturationReject fails fast with ErrQueueFull.
	SaturationReject Saturation = "reject"
	// SaturationBlock waits for space, context cancellation or Close.
	SaturationBlock Saturation = "block"
)

// TaskQueue is a bounded in-process queue. It implements Enqueuer for
// producers and exposes a receive channel for a WorkerPool.
type TaskQueue struct {
	jobs       chan Job
	done       chan struct{}
	saturation Saturation
	logger     *slog.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ Enqueuer = (*TaskQueue)(nil)

// NewTaskQueue creates a new task queue with the specified buffer size.
// An unknown saturation policy falls back to SaturationReject.
func NewTaskQueue(size int, saturation Saturation, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = 1
	}
	if saturation != SaturationBlock {
		saturation = SaturationReject
	}
	return &TaskQueue{
		jobs:       make(chan Job, size),
		done:       make(chan struct{}),
		saturation: saturation,
		logger:     logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue adds a job to the queue.
// Returns ErrQueueClosed after Close, ErrQueueFull when the buffer is full
// under SaturationReject, or ctx.Err() if the context ends while blocked.
func (q *TaskQueue) Enqueue(ctx context.Context, job Job) error {
	if job == nil {
		return errors.New("nil job")
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	if q.saturation == SaturationReject {
		select {
		case q.jobs <- job:
			q.logEnqueued(job)
			return nil
		default:
			return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
		}
	}

	select {
	case q.jobs <- job:
		q.logEnqueued(job)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

func (q *TaskQueue) logEnqueued(job Job) {
	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID()),
		slog.String("job_kind", job.Kind()),
		slog.Int("queue_len", q.Len()),
		slog.Int("queue_cap", cap(q.jobs)))
}

// Close stops accepting jobs. Jobs already buffered stay readable from
// GetChannel until drained. Close is safe to call more than once.
func (q *TaskQueue) Close() {
	q.closeOnce.Do(func() {
		// Release producers blocked under SaturationBlock before taking the
		// write lock they hold a read lock against.
		close(q.done)

		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()

		q.logger.Info("task queue closed", slog.Int("pending", len(q.jobs)))
	})
}

// GetChannel returns a read-only channel for consuming jobs
func (q *TaskQueue) GetChannel() <-chan Job {
	return q.jobs
}

// Len reports the number of buffered jobs.
func (q *TaskQueue) Len() int {
	return len(q.jobs)
}
