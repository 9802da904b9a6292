// Package bootstrap builds the infrastructure clients shared by the API
// server and the standalone worker from loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/userfile-api/internal/cache"
	"github.com/phrazzld/userfile-api/internal/config"
	"github.com/phrazzld/userfile-api/internal/platform/minio"
	"github.com/phrazzld/userfile-api/internal/platform/redis"
	"github.com/phrazzld/userfile-api/internal/task"
)

// CloseFunc releases a resource built here.
type CloseFunc func() error

func noopClose() error { return nil }

// CacheStore builds the configured cache backend.
func CacheStore(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (cache.Store, CloseFunc, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		log.Info("using redis cache", "ttl_seconds", cfg.TTLSeconds)
		return redis.NewStore(client, log), client.Close, nil

	case config.CacheBackendMemory:
		log.Info("using in-memory cache", "ttl_seconds", cfg.TTLSeconds)
		return cache.NewMemoryStore(), noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// CacheLayer wraps the configured cache backend in a cache.Layer.
func CacheLayer(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (*cache.Layer, CloseFunc, error) {
	store, closeFn, err := CacheStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewLayer(store, cfg.TTL(), log), closeFn, nil
}

// Archiver returns the object storage archiver, or nil when archiving is disabled.
func Archiver(ctx context.Context, cfg config.ArchiveConfig, log *slog.Logger) (task.Archiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := minio.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	archiver, err := minio.NewArchiver(ctx, client, cfg.Bucket, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
	}
	log.Info("archiving processed images", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return archiver, nil
}

// Processor builds the job handler that writes thumbnails and status.
func Processor(ctx context.Context, cfg *config.Config, status task.StatusWriter, log *slog.Logger) (*task.Processor, error) {
	archiver, err := Archiver(ctx, cfg.Archive, log)
	if err != nil {
		return nil, err
	}
	return task.NewProcessor(status, archiver, task.ProcessorConfig{
		ThumbnailDir:  cfg.Storage.ThumbnailDir,
		ThumbnailSize: cfg.Task.ThumbnailSize,
	}, log), nil
}

// AsynqRedisOpt derives asynq's connection options from the cache Redis URL.
// The redis task backend always shares the cache's Redis server.
func AsynqRedisOpt(cfg config.CacheConfig) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url for task queue: %w", err)
	}
	return opt, nil
}
