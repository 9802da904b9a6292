// Package cache mirrors selected store values and image job status in a
// key-value backend. Entries are best effort: they may be stale or absent,
// and an absent entry is never an error distinct from "not yet computed".
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Store.Get when the key has no value.
var ErrMiss = errors.New("cache miss")

// Store is a raw key-value backend. Implementations report absent keys with
// ErrMiss and every other failure as an ordinary error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UserFileKey is the key under which a user's file path is mirrored.
func UserFileKey(userID int64) string {
	return fmt.Sprintf("user_file:%d", userID)
}

// ImageStatusKey is the key holding the status of an image job.
func ImageStatusKey(jobID string) string {
	return "image_status:" + jobID
}
