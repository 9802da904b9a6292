package store

import (
	"context"

	"github.com/phrazzld/userfile-api/internal/domain"
)

// UserStore defines the interface for user record persistence.
// Every method is a single atomic statement against the backing store.
type UserStore interface {
	// Create inserts a record with the given name and returns it with its
	// store-assigned ID.
	Create(ctx context.Context, name string) (*domain.UserRecord, error)

	// List returns every record ordered by ID.
	List(ctx context.Context) ([]domain.UserRecord, error)

	// GetByID returns ErrUserNotFound if no record has the given ID.
	GetByID(ctx context.Context, id int64) (*domain.UserRecord, error)

	// UpdateName renames a record.
	// Returns ErrUserNotFound if the record does not exist.
	UpdateName(ctx context.Context, id int64, name string) (*domain.UserRecord, error)

	// Delete removes a record.
	// Returns ErrUserNotFound if the record does not exist.
	Delete(ctx context.Context, id int64) error

	// SetFilePath records the location of the user's most recent upload.
	// Returns ErrUserNotFound if the record does not exist.
	SetFilePath(ctx context.Context, id int64, path string) (*domain.UserRecord, error)
}
