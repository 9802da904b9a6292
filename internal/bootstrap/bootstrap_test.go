package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/phrazzld/userfile-api/internal/cache"
	"github.com/phrazzld/userfile-api/internal/config"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheLayer_Memory(t *testing.T) {
	ctx := context.Background()
	layer, closeFn, err := CacheLayer(ctx, config.CacheConfig{Backend: config.CacheBackendMemory}, testLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	layer.SetUserFilePath(ctx, 1, "uploads/a")
	got, ok := layer.UserFilePath(ctx, 1)
	assert.True(t, ok)
	assert.Equal(t, "uploads/a", got)
}

func TestCacheLayer_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	layer, closeFn, err := CacheLayer(ctx, config.CacheConfig{
		Backend:  config.CacheBackendRedis,
		RedisURL: "redis://" + mr.Addr() + "/0",
	}, testLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	layer.SetImageStatus(ctx, "job", domain.ImageStatusProcessed)
	value, err := mr.Get(cache.ImageStatusKey("job"))
	require.NoError(t, err)
	assert.Equal(t, "processed", value)
}

func TestCacheStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := CacheStore(ctx, config.CacheConfig{Backend: "memcached"}, testLogger())
	assert.ErrorContains(t, err, "unknown cache backend")

	_, _, err = CacheStore(ctx, config.CacheConfig{
		Backend:  config.CacheBackendRedis,
		RedisURL: "redis://127.0.0.1:1/0",
	}, testLogger())
	assert.ErrorContains(t, err, "failed to connect to redis cache")
}

func TestArchiver_Disabled(t *testing.T) {
	a, err := Archiver(context.Background(), config.ArchiveConfig{}, testLogger())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestProcessor(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{ThumbnailDir: t.TempDir()},
		Task:    config.TaskConfig{ThumbnailSize: 64},
	}
	layer := cache.NewLayer(cache.NewMemoryStore(), 0, testLogger())

	p, err := Processor(context.Background(), cfg, layer, testLogger())

	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.ThumbnailDir+"/abc.png", p.ThumbnailPath("abc"))
}

func TestAsynqRedisOpt(t *testing.T) {
	opt, err := AsynqRedisOpt(config.CacheConfig{RedisURL: "redis://:pw@cache:6379/2"})
	require.NoError(t, err)

	clientOpt, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "cache:6379", clientOpt.Addr)
	assert.Equal(t, "pw", clientOpt.Password)
	assert.Equal(t, 2, clientOpt.DB)

	_, err = AsynqRedisOpt(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}
