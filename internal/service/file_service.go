package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/store"
	"github.com/phrazzld/userfile-api/internal/task"
)

// Lookup sources reported by FindUserFile.
const (
	SourceCache = "cache"
	SourceDB    = "db"
)

// FileStorage persists uploaded bytes on local disk.
type FileStorage interface {
	// SaveUpload writes r under a unique generated name derived from
	// originalName and returns the full path and the generated name.
	SaveUpload(ctx context.Context, originalName string, r io.Reader) (path string, name string, err error)

	// SaveTemp writes r to the temporary intake area for id.
	SaveTemp(ctx context.Context, id, filename string, r io.Reader) (string, error)

	// Remove deletes a previously written file.
	Remove(path string) error
}

// FilePathCache mirrors user file paths.
type FilePathCache interface {
	UserFilePath(ctx context.Context, userID int64) (string, bool)
	SetUserFilePath(ctx context.Context, userID int64, path string)
}

// FileLookup is the result of a find-file request.
type FileLookup struct {
	ID       int64   `json:"id"`
	FilePath *string `json:"file_path"`
	Source   string  `json:"source"`
}

// FileService handles per-user uploads and the cache-aside lookup of the
// uploaded file's location.
type FileService interface {
	// UploadUserFile stores r for user id, records the path, mirrors it into
	// the cache and queues post-processing. The store write is not undone
	// when the cache write or the enqueue fails.
	UploadUserFile(ctx context.Context, id int64, filename string, r io.Reader) (*domain.UserRecord, error)

	// FindUserFile answers from the cache when possible, falling back to the
	// store and repairing the cache on a miss.
	FindUserFile(ctx context.Context, id int64) (*FileLookup, error)
}

type fileService struct {
	users    store.UserStore
	files    FileStorage
	cache    FilePathCache
	enqueuer task.Enqueuer
	logger   *slog.Logger
}

// NewFileService creates a FileService.
func NewFileService(
	users store.UserStore,
	files FileStorage,
	cache FilePathCache,
	enqueuer task.Enqueuer,
	logger *slog.Logger,
) FileService {
	if users == nil || files == nil || cache == nil || enqueuer == nil {
		panic("file service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &fileService{
		users:    users,
		files:    files,
		cache:    cache,
		enqueuer: enqueuer,
		logger:   logger.With("component", "file_service"),
	}
}

func (s *fileService) UploadUserFile(
	ctx context.Context,
	id int64,
	filename string,
	r io.Reader,
) (*domain.UserRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("user_id", id)

	// Nothing is written for an unknown user.
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to look up upload owner", "error", err)
		}
		return nil, wrapStoreError("get user", err)
	}

	path, name, err := s.files.SaveUpload(ctx, filename, r)
	if err != nil {
		log.Error("failed to write upload", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFileWrite, err)
	}

	user, err := s.users.SetFilePath(ctx, id, path)
	if err != nil {
		log.Error("failed to record file path", "error", err, "path", path)
		if rmErr := s.files.Remove(path); rmErr != nil {
			log.Warn("failed to remove orphaned upload", "error", rmErr, "path", path)
		}
		return nil, wrapStoreError("set file path", err)
	}

	s.cache.SetUserFilePath(ctx, id, path)

	job := task.ProcessImage{JobID: name, SourcePath: path}
	if err := s.enqueuer.Enqueue(ctx, job); err != nil {
		log.Warn("failed to enqueue post-processing, upload kept",
			"error", err,
			"job_id", name)
	}

	log.Info("user file uploaded", "path", path, "job_id", name)
	return user, nil
}

func (s *fileService) FindUserFile(ctx context.Context, id int64) (*FileLookup, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("user_id", id)

	// A hit is trusted without consulting the store.
	if path, ok := s.cache.UserFilePath(ctx, id); ok {
		log.Debug("file path served from cache")
		return &FileLookup{ID: id, FilePath: &path, Source: SourceCache}, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to look up user file", "error", err)
		}
		return nil, wrapStoreError("get user", err)
	}

	if user.HasFile() {
		s.cache.SetUserFilePath(ctx, id, *user.FilePath)
		log.Debug("cache repaired from store")
	}

	return &FileLookup{ID: user.ID, FilePath: user.FilePath, Source: SourceDB}, nil
}
