package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/userfile-api/internal/bootstrap"
	"github.com/phrazzld/userfile-api/internal/cache"
	"github.com/phrazzld/userfile-api/internal/config"
	"github.com/phrazzld/userfile-api/internal/platform/postgres"
	"github.com/phrazzld/userfile-api/internal/service"
	"github.com/phrazzld/userfile-api/internal/storage"
	"github.com/phrazzld/userfile-api/internal/store"
	"github.com/phrazzld/userfile-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cache      *cache.Layer
	closeCache bootstrap.CloseFunc

	userStore store.UserStore
	files     *storage.LocalStore

	// enqueuer is taskQueue for the memory backend or asynqQueue for redis.
	enqueuer   task.Enqueuer
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
	asynqQueue *task.AsynqQueue

	userService  service.UserService
	fileService  service.FileService
	imageService service.ImageService
}

// newApplication creates a new application instance with all dependencies initialized.
// db must already be connected and migrated.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.cache, app.closeCache, err = bootstrap.CacheLayer(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	app.userStore = postgres.NewPostgresUserStore(db, logger)

	app.files, err = storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.TempDir, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to prepare storage: %w", err)
	}

	if err := app.setupTaskBackend(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to setup task backend: %w", err)
	}

	app.userService = service.NewUserService(app.userStore, app.cache, service.UserServiceOptions{
		InvalidateOnDelete: cfg.Cache.InvalidateOnDelete,
	}, logger)
	app.fileService = service.NewFileService(app.userStore, app.files, app.cache, app.enqueuer, logger)
	app.imageService = service.NewImageService(app.files, app.cache, app.enqueuer, logger)

	// The application owns db from here on; earlier failures leave it to the caller.
	app.db = db

	logger.Info("application initialized successfully")
	return app, nil
}

// setupTaskBackend wires the configured job queue. The memory backend runs
// its workers in this process; the redis backend only produces jobs and
// leaves execution to cmd/worker.
func (app *application) setupTaskBackend(ctx context.Context) error {
	cfg := app.config.Task

	switch cfg.Backend {
	case config.TaskBackendMemory:
		processor, err := bootstrap.Processor(ctx, app.config, app.cache, app.logger)
		if err != nil {
			return err
		}

		app.taskQueue = task.NewTaskQueue(cfg.QueueSize, task.Saturation(cfg.Saturation), app.logger)

		poolConfig := task.DefaultWorkerPoolConfig()
		poolConfig.WorkerCount = cfg.WorkerCount
		poolConfig.MaxRetry = cfg.MaxRetry
		app.workerPool = task.NewWorkerPool(app.taskQueue, processor, poolConfig, app.logger)
		app.workerPool.Start()

		app.enqueuer = app.taskQueue

	case config.TaskBackendRedis:
		redisOpt, err := bootstrap.AsynqRedisOpt(app.config.Cache)
		if err != nil {
			return err
		}
		app.asynqQueue = task.NewAsynqQueue(redisOpt, cfg.Queue, cfg.MaxRetry, app.logger)
		app.enqueuer = app.asynqQueue

	default:
		return fmt.Errorf("unknown task backend %q", cfg.Backend)
	}

	app.logger.Info("task backend ready",
		"backend", cfg.Backend,
		"queue_size", cfg.QueueSize,
		"worker_count", cfg.WorkerCount,
		"saturation", cfg.Saturation)
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Producers are
// stopped before the workers so the backlog can drain.
func (app *application) cleanup() {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
		app.workerPool.Stop(stopCtx)
		cancel()
	}
	if app.asynqQueue != nil {
		if err := app.asynqQueue.Close(); err != nil {
			app.logger.Error("error closing task queue client", "error", err)
		}
	}

	if app.closeCache != nil {
		if err := app.closeCache(); err != nil {
			app.logger.Error("error closing cache connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
