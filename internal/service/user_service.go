package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/store"
)

// FilePathEvicter removes a mirrored user file path from the cache.
type FilePathEvicter interface {
	DeleteUserFilePath(ctx context.Context, userID int64)
}

// UserService provides user record management.
type UserService interface {
	// CreateUser stores a new record with the given name.
	CreateUser(ctx context.Context, name string) (*domain.UserRecord, error)

	// ListUsers returns every record ordered by ID.
	ListUsers(ctx context.Context) ([]domain.UserRecord, error)

	// RenameUser changes a record's name.
	// Returns store.ErrUserNotFound if the record does not exist.
	RenameUser(ctx context.Context, id int64, name string) (*domain.UserRecord, error)

	// DeleteUser removes a record.
	// Returns store.ErrUserNotFound if the record does not exist.
	DeleteUser(ctx context.Context, id int64) error
}

// UserServiceOptions tunes UserService behavior.
type UserServiceOptions struct {
	// InvalidateOnDelete evicts user_file:<id> when the user is deleted.
	// Off by default: a cached path survives its record.
	InvalidateOnDelete bool
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	cache     FilePathEvicter
	options   UserServiceOptions
	logger    *slog.Logger
}

// NewUserService creates a new UserService. cache may be nil when
// InvalidateOnDelete is false.
func NewUserService(
	userStore store.UserStore,
	cache FilePathEvicter,
	options UserServiceOptions,
	logger *slog.Logger,
) UserService {
	if userStore == nil {
		panic("user store cannot be nil")
	}
	if options.InvalidateOnDelete && cache == nil {
		panic("cache is required when InvalidateOnDelete is set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		cache:     cache,
		options:   options,
		logger:    logger.With("component", "user_service"),
	}
}

// CreateUser stores a new record with the given name.
func (s *UserServiceImpl) CreateUser(ctx context.Context, name string) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}

	user, err := s.userStore.Create(ctx, name)
	if err != nil {
		log.Error("failed to create user", "error", err)
		return nil, wrapStoreError("create user", err)
	}

	log.Info("user created", "user_id", user.ID)
	return user, nil
}

// ListUsers returns every record ordered by ID.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	users, err := s.userStore.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users", "error", err)
		return nil, wrapStoreError("list users", err)
	}
	return users, nil
}

// RenameUser changes a record's name.
func (s *UserServiceImpl) RenameUser(ctx context.Context, id int64, name string) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}

	user, err := s.userStore.UpdateName(ctx, id, name)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("rename of unknown user", "user_id", id)
		} else {
			log.Error("failed to rename user", "error", err, "user_id", id)
		}
		return nil, wrapStoreError("rename user", err)
	}

	log.Info("user renamed", "user_id", id)
	return user, nil
}

// DeleteUser removes a record and, when configured, its cached file path.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.userStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("delete of unknown user", "user_id", id)
		} else {
			log.Error("failed to delete user", "error", err, "user_id", id)
		}
		return wrapStoreError("delete user", err)
	}

	if s.options.InvalidateOnDelete {
		s.cache.DeleteUserFilePath(ctx, id)
	}

	log.Info("user deleted", "user_id", id)
	return nil
}
