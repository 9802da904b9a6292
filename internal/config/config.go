package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
	MaxUploadMB            int    `mapstructure:"max_upload_mb" validate:"gt=0"`
}

// ShutdownTimeout is the grace period given to in-flight requests on shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// MaxUploadBytes is the largest request body accepted by upload endpoints.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// ConnMaxLifetime converts ConnMaxLifetimeMinutes to a duration.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// Cache backends.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// CacheConfig selects and tunes the key-value mirror.
type CacheConfig struct {
	Backend  string `mapstructure:"backend" validate:"required,oneof=redis memory"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	// TTLSeconds of 0 means entries never expire.
	TTLSeconds         int  `mapstructure:"ttl_seconds" validate:"gte=0"`
	InvalidateOnDelete bool `mapstructure:"invalidate_on_delete"`
}

// TTL converts TTLSeconds to a duration. Zero means no expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Task queue backends and saturation policies.
const (
	TaskBackendMemory = "memory"
	TaskBackendRedis  = "redis"

	SaturationReject = "reject"
	SaturationBlock  = "block"
)

// TaskConfig controls the background job queue.
type TaskConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	QueueSize     int    `mapstructure:"queue_size" validate:"gt=0"`
	WorkerCount   int    `mapstructure:"worker_count" validate:"gt=0"`
	Saturation    string `mapstructure:"saturation" validate:"required,oneof=reject block"`
	MaxRetry      int    `mapstructure:"max_retry" validate:"gte=0"`
	ThumbnailSize int    `mapstructure:"thumbnail_size" validate:"gt=0"`
	// Queue is the asynq queue name used by the redis backend.
	Queue string `mapstructure:"queue" validate:"required"`
}

// StorageConfig names the local directories uploads are written to.
type StorageConfig struct {
	UploadDir    string `mapstructure:"upload_dir" validate:"required"`
	TempDir      string `mapstructure:"temp_dir" validate:"required"`
	ThumbnailDir string `mapstructure:"thumbnail_dir" validate:"required"`
}

// ArchiveConfig configures the optional S3-compatible copy of processed images.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key" validate:"required_if=Enabled true"`
	SecretKey string `mapstructure:"secret_key" validate:"required_if=Enabled true"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// Region is sent when signing requests. Setting it skips the bucket
	// location lookup.
	Region string `mapstructure:"region"`
}

