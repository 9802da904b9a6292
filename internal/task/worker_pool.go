package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// JobSource provides read-only access to queued jobs.
type JobSource interface {
	GetChannel() <-chan Job
}

// WorkerPool manages a pool of worker goroutines that process jobs
// from a JobSource. It handles retries, graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// source provides the jobs to be processed
	source JobSource

	handler Handler
	config  WorkerPoolConfig

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is cancelled when Stop gives up waiting for the backlog to drain
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	startOnce sync.Once
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// MaxRetry is how many times a failed job is retried after its first attempt.
	MaxRetry int

	// RetryBase is the first backoff delay; later delays double.
	RetryBase time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
		MaxRetry:    3,
		RetryBase:   500 * time.Millisecond,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(source JobSource, handler Handler, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "worker_pool"))

	// Apply defaults for invalid config values
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
		config.WorkerCount = 1
	}
	if config.MaxRetry < 0 {
		config.MaxRetry = 0
	}
	if config.RetryBase <= 0 {
		config.RetryBase = DefaultWorkerPoolConfig().RetryBase
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		source:  source,
		handler: handler,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Start launches the workers. Calling Start more than once has no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool",
			slog.Int("worker_count", p.config.WorkerCount),
			slog.Int("max_retry", p.config.MaxRetry))

		for i := 0; i < p.config.WorkerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Stop waits for the workers to drain the source, which must already be
// closed. If ctx ends first, in-flight jobs are cancelled and the remaining
// backlog is abandoned.
func (p *WorkerPool) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
	case <-ctx.Done():
		p.logger.Warn("worker pool stop timed out, cancelling in-flight jobs")
		p.cancel()
		<-done
	}
	p.cancel()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", slog.Int("worker_id", id))
	jobs := p.source.GetChannel()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case job, ok := <-jobs:
			if !ok {
				p.logger.Debug("job channel closed, stopping worker", slog.Int("worker_id", id))
				return
			}
			p.run(job, id)
		}
	}
}

// run executes one job with exponential backoff between attempts.
func (p *WorkerPool) run(job Job, workerID int) {
	log := p.logger.With(
		slog.String("job_id", job.ID()),
		slog.String("job_kind", job.Kind()),
		slog.Int("worker_id", workerID),
	)

	if p.ctx.Err() != nil {
		log.Warn("worker pool cancelled, abandoning job")
		return
	}

	backoff := retry.WithMaxRetries(uint64(p.config.MaxRetry), retry.NewExponential(p.config.RetryBase))

	attempt := 0
	err := retry.Do(p.ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := p.handler.Process(ctx, job)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		log.Warn("job attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		return retry.RetryableError(err)
	})

	if err == nil {
		log.Info("job completed", slog.Int("attempts", attempt))
		return
	}

	log.Error("job failed",
		slog.Int("attempts", attempt),
		slog.Bool("permanent", IsPermanent(err)),
		slog.String("error", err.Error()))

	// Record the terminal status even when the pool context was cancelled.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), 5*time.Second)
	defer cancel()

	p.handler.Fail(failCtx, job, err)
}
