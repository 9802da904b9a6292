package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Set(ctx, "short", "v", 20*time.Millisecond))
	require.NoError(t, m.Set(ctx, "forever", "v", 0))

	time.Sleep(50 * time.Millisecond)

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemoryStore()

	assert.ErrorIs(t, m.Set(ctx, "k", "v", 0), context.Canceled)
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Delete(ctx, "k"), context.Canceled)
}

func TestMemoryStore_ConcurrentWritersConverge(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set(ctx, UserFileKey(1), "uploads/same.png", 0)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, UserFileKey(1))
	require.NoError(t, err)
	assert.Equal(t, "uploads/same.png", got)
}
