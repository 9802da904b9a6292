package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob(n int) ProcessImage {
	return ProcessImage{JobID: fmt.Sprintf("job-%d", n), SourcePath: fmt.Sprintf("/tmp/%d.png", n)}
}

func TestNewTaskQueue(t *testing.T) {
	q := NewTaskQueue(10, SaturationBlock, nil)
	assert.Equal(t, 10, cap(q.jobs))
	assert.Equal(t, SaturationBlock, q.saturation)

	q = NewTaskQueue(0, "bogus", nil)
	assert.Equal(t, 1, cap(q.jobs))
	assert.Equal(t, SaturationReject, q.saturation)
}

func TestTaskQueue_RejectWhenFull(t *testing.T) {
	q := NewTaskQueue(2, SaturationReject, nil)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testJob(1)))
	require.NoError(t, q.Enqueue(ctx, testJob(2)))

	err := q.Enqueue(ctx, testJob(3))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())

	got := <-q.GetChannel()
	assert.Equal(t, testJob(1), got)
}

func TestTaskQueue_BlockWaitsForSpace(t *testing.T) {
	q := NewTaskQueue(1, SaturationBlock, nil)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, testJob(1)))

	result := make(chan error, 1)
	go func() { result <- q.Enqueue(ctx, testJob(2)) }()

	select {
	case err := <-result:
		t.Fatalf("enqueue returned before space was available: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	<-q.GetChannel()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked enqueue did not complete")
	}
	assert.Equal(t, testJob(2), <-q.GetChannel())
}

func TestTaskQueue_BlockHonoursContext(t *testing.T) {
	q := NewTaskQueue(1, SaturationBlock, nil)
	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Enqueue(ctx, testJob(2))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTaskQueue_CloseReleasesBlockedProducers(t *testing.T) {
	q := NewTaskQueue(1, SaturationBlock, nil)
	require.NoError(t, q.Enqueue(context.Background(), testJob(1)))

	result := make(chan error, 1)
	go func() { result <- q.Enqueue(context.Background(), testJob(2)) }()
	time.Sleep(20 * time.Millisecond)

	q.Close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not release blocked producer")
	}
}

func TestTaskQueue_Close(t *testing.T) {
	q := NewTaskQueue(4, SaturationReject, nil)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, testJob(1)))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(ctx, testJob(2)), ErrQueueClosed)

	// Buffered jobs remain readable after Close.
	job, ok := <-q.GetChannel()
	assert.True(t, ok)
	assert.Equal(t, testJob(1), job)

	_, ok = <-q.GetChannel()
	assert.False(t, ok)
}

func TestTaskQueue_NilJob(t *testing.T) {
	q := NewTaskQueue(1, SaturationReject, nil)
	assert.Error(t, q.Enqueue(context.Background(), nil))
}

func TestTaskQueue_ConcurrentProducers(t *testing.T) {
	const producers = 50
	q := NewTaskQueue(producers, SaturationReject, nil)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, q.Enqueue(context.Background(), testJob(n)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, producers, q.Len())
}
