package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/store"
)

const userColumns = "id, name, file_path"

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.UserRecord, error) {
	var (
		user     domain.UserRecord
		filePath sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Name, &filePath); err != nil {
		return nil, err
	}
	if filePath.Valid {
		path := filePath.String
		user.FilePath = &path
	}
	return &user, nil
}

// Create implements store.UserStore.Create.
// Returns store.ErrInvalidEntity wrapping the domain validation error if the
// name is rejected.
func (s *PostgresUserStore) Create(ctx context.Context, name string) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateName(name); err != nil {
		log.Debug("user validation failed during create", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO users (name) VALUES ($1) RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		log.Error("failed to create user", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Info("user created", slog.Int64("user_id", user.ID))
	return user, nil
}

// List implements store.UserStore.List.
func (s *PostgresUserStore) List(ctx context.Context) ([]domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	users := make([]domain.UserRecord, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating user rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("users listed", slog.Int("count", len(users)))
	return users, nil
}

// GetByID implements store.UserStore.GetByID.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.Int64("user_id", id))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return nil, MapError(err)
	}

	return user, nil
}

// UpdateName implements store.UserStore.UpdateName.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) UpdateName(ctx context.Context, id int64, name string) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateName(name); err != nil {
		log.Debug("user validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `UPDATE users SET name = $1 WHERE id = $2 RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, name, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found for update", slog.Int64("user_id", id))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to update user name",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return nil, MapError(err)
	}

	log.Info("user renamed", slog.Int64("user_id", id))
	return user, nil
}

// Delete implements store.UserStore.Delete.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("user not found for delete", slog.Int64("user_id", id))
			return store.ErrUserNotFound
		}
		log.Error("failed to check deleted rows",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return err
	}

	log.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// SetFilePath implements store.UserStore.SetFilePath.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) SetFilePath(ctx context.Context, id int64, path string) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE users SET file_path = $1 WHERE id = $2 RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, path, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found for file path update", slog.Int64("user_id", id))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to set file path",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return nil, MapError(err)
	}

	log.Info("user file path recorded",
		slog.Int64("user_id", id),
		slog.String("file_path", path))
	return user, nil
}
