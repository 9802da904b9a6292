package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. USERFILE_SERVER_PORT.
const EnvPrefix = "USERFILE"

var defaults = map[string]any{
	"server.port":                        8080,
	"server.log_level":                   "info",
	"server.shutdown_timeout_seconds":    10,
	"server.max_upload_mb":               32,
	"database.max_open_conns":            10,
	"database.max_idle_conns":            5,
	"database.conn_max_lifetime_minutes": 5,
	"cache.backend":                      CacheBackendMemory,
	"cache.ttl_seconds":                  0,
	"cache.invalidate_on_delete":         false,
	"task.backend":                       TaskBackendMemory,
	"task.queue_size":                    100,
	"task.worker_count":                  4,
	"task.saturation":                    SaturationReject,
	"task.max_retry":                     3,
	"task.thumbnail_size":                128,
	"task.queue":                         "default",
	"storage.upload_dir":                 "uploads",
	"storage.temp_dir":                   "tmp",
	"storage.thumbnail_dir":              "thumbnails",
	"archive.enabled":                    false,
	"archive.bucket":                     "processed-images",
	"archive.use_ssl":                    false,
	"archive.region":                     "us-east-1",
}

// Keys without defaults still need binding so AutomaticEnv picks them up
// during Unmarshal.
var envOnlyKeys = []string{
	"database.url",
	"cache.redis_url",
	"archive.endpoint",
	"archive.access_key",
	"archive.secret_key",
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables take precedence over values
// from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFromDir(".")
}

// LoadFromDir is Load with an explicit directory to search for config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the cross-group rules that struct
// tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// The worker process writes job status through the cache, so an
	// in-process cache would be invisible to the server.
	if cfg.Task.Backend == TaskBackendRedis && cfg.Cache.Backend != CacheBackendRedis {
		return fmt.Errorf("config validation failed: task.backend=%s requires cache.backend=%s",
			TaskBackendRedis, CacheBackendRedis)
	}

	return nil
}
