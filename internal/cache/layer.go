package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
)

// Layer is the typed view over a Store used by the services and workers.
// It absorbs backend failures: a failed read is reported as absent and a
// failed write is logged and dropped.
type Layer struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewLayer wraps store. A ttl of zero writes entries without expiry.
func NewLayer(store Store, ttl time.Duration, logger *slog.Logger) *Layer {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{
		store:  store,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

func (l *Layer) get(ctx context.Context, key string) (string, bool) {
	value, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logger.FromContextOrDefault(ctx, l.logger).Warn("cache read failed, treating as miss",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return "", false
	}
	return value, true
}

func (l *Layer) set(ctx context.Context, key, value string) {
	if err := l.store.Set(ctx, key, value, l.ttl); err != nil {
		logger.FromContextOrDefault(ctx, l.logger).Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// UserFilePath returns the mirrored file path for userID, if present.
func (l *Layer) UserFilePath(ctx context.Context, userID int64) (string, bool) {
	return l.get(ctx, UserFileKey(userID))
}

// SetUserFilePath mirrors path for userID. Callers only pass values read
// from the store or just written to it.
func (l *Layer) SetUserFilePath(ctx context.Context, userID int64, path string) {
	l.set(ctx, UserFileKey(userID), path)
}

// DeleteUserFilePath evicts the mirrored path for userID.
func (l *Layer) DeleteUserFilePath(ctx context.Context, userID int64) {
	key := UserFileKey(userID)
	if err := l.store.Delete(ctx, key); err != nil {
		logger.FromContextOrDefault(ctx, l.logger).Warn("cache delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// ImageStatus returns the recorded status of jobID, or
// domain.ImageStatusNotFound when nothing (or nothing recognizable) is stored.
func (l *Layer) ImageStatus(ctx context.Context, jobID string) domain.ImageStatus {
	raw, ok := l.get(ctx, ImageStatusKey(jobID))
	if !ok {
		return domain.ImageStatusNotFound
	}
	status, err := domain.ParseImageStatus(raw)
	if err != nil {
		logger.FromContextOrDefault(ctx, l.logger).Warn("unrecognized image status in cache",
			slog.String("image_id", jobID),
			slog.String("value", raw))
		return domain.ImageStatusNotFound
	}
	return status
}

// SetImageStatus records status for jobID.
func (l *Layer) SetImageStatus(ctx context.Context, jobID string, status domain.ImageStatus) {
	l.set(ctx, ImageStatusKey(jobID), string(status))
}
