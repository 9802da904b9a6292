package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/userfile-api/internal/cache"
)

var errBackendDown = errors.New("backend down")

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, error) { return "", errBackendDown }

func (brokenCache) Set(context.Context, string, string, time.Duration) error { return errBackendDown }

func (brokenCache) Delete(context.Context, string) error { return errBackendDown }

// countingCache wraps a MemoryStore and counts writes.
type countingCache struct {
	*cache.MemoryStore

	mu   sync.Mutex
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{MemoryStore: cache.NewMemoryStore()}
}

func (c *countingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryStore.Set(ctx, key, value, ttl)
}

func (c *countingCache) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
