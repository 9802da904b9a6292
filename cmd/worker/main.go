// Package main runs the background worker for the redis task backend. It
// pulls image jobs from Redis, writes thumbnails and records job status in
// the shared cache.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/userfile-api/internal/bootstrap"
	"github.com/phrazzld/userfile-api/internal/config"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "userfile-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newWorker(ctx, cfg, log)
	if err != nil {
		return err
	}
	return w.run(ctx)
}

// worker owns the asynq server and the cache connection it reports through.
type worker struct {
	server     *task.AsynqServer
	closeCache bootstrap.CloseFunc
	logger     *slog.Logger
}

func newWorker(ctx context.Context, cfg *config.Config, log *slog.Logger) (*worker, error) {
	if cfg.Task.Backend != config.TaskBackendRedis {
		return nil, fmt.Errorf("worker requires task.backend=%s, got %q", config.TaskBackendRedis, cfg.Task.Backend)
	}

	layer, closeCache, err := bootstrap.CacheLayer(ctx, cfg.Cache, log)
	if err != nil {
		return nil, err
	}

	processor, err := bootstrap.Processor(ctx, cfg, layer, log)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	redisOpt, err := bootstrap.AsynqRedisOpt(cfg.Cache)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	server := task.NewAsynqServer(redisOpt, task.AsynqServerConfig{
		Concurrency: cfg.Task.WorkerCount,
		Queue:       cfg.Task.Queue,
	}, processor, log)

	return &worker{
		server:     server,
		closeCache: closeCache,
		logger:     log.With("component", "worker"),
	}, nil
}

// run processes jobs until ctx is cancelled, then waits for active jobs.
func (w *worker) run(ctx context.Context) error {
	if err := w.server.Start(); err != nil {
		_ = w.closeCache()
		return fmt.Errorf("failed to start worker: %w", err)
	}
	w.logger.Info("worker started")

	<-ctx.Done()
	w.logger.Info("shutting down worker")
	w.server.Shutdown()

	if err := w.closeCache(); err != nil {
		w.logger.Error("error closing cache connection", "error", err)
	}
	w.logger.Info("worker stopped")
	return nil
}
