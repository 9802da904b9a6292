package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/userfile-api/internal/store"
)

// Sentinel errors returned by the services. Callers match them with errors.Is;
// the API layer maps each to an HTTP status.
var (
	// ErrFileWrite indicates uploaded bytes could not be written to local storage.
	// API layer should map this to HTTP 500.
	ErrFileWrite = errors.New("file write failed")

	// ErrStore indicates the record store failed for a reason other than a
	// missing record or invalid input.
	// API layer should map this to HTTP 500.
	ErrStore = errors.New("record store failure")

	// ErrInvalidImage indicates an image intake upload whose content is not an image.
	// API layer should map this to HTTP 400.
	ErrInvalidImage = errors.New("uploaded file is not an image")

	// ErrQueueUnavailable indicates a job that had to be queued could not be,
	// because the queue is saturated, closed or unreachable.
	// API layer should map this to HTTP 503.
	ErrQueueUnavailable = errors.New("task queue unavailable")
)

// wrapStoreError leaves not-found and validation errors intact and tags
// everything else with ErrStore, keeping the failed operation in a
// *store.StoreError.
func wrapStoreError(op string, err error) error {
	if store.IsNotFoundError(err) || errors.Is(err, store.ErrInvalidEntity) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, store.NewStoreError("user", op, "store call failed", err))
}
