package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

var osExit = os.Exit

// asynqClient is the subset of *asynq.Client used by AsynqQueue.
type asynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// AsynqQueue enqueues jobs into Redis for an AsynqServer to execute.
type AsynqQueue struct {
	client   asynqClient
	queue    string
	maxRetry int
	logger   *slog.Logger
}

var _ Enqueuer = (*AsynqQueue)(nil)

// NewAsynqQueue creates a producer bound to redisOpt.
func NewAsynqQueue(redisOpt asynq.RedisConnOpt, queue string, maxRetry int, logger *slog.Logger) *AsynqQueue {
	return newAsynqQueue(asynq.NewClient(redisOpt), queue, maxRetry, logger)
}

func newAsynqQueue(client asynqClient, queue string, maxRetry int, logger *slog.Logger) *AsynqQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = "default"
	}
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &AsynqQueue{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "asynq_queue")),
	}
}

// Enqueue implements Enqueuer. The job ID doubles as the asynq task ID, so
// re-enqueueing a job that is still pending is a no-op.
func (q *AsynqQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := EncodeJob(job)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx,
		asynq.NewTask(job.Kind(), payload),
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
		asynq.TaskID(job.ID()),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			q.logger.Debug("job already enqueued", slog.String("job_id", job.ID()))
			return nil
		}
		return fmt.Errorf("asynq enqueue %s: %w", job.Kind(), err)
	}

	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID()),
		slog.String("job_kind", job.Kind()),
		slog.String("queue", info.Queue))
	return nil
}

// Close releases the Redis connection.
func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// AsynqServerConfig configures the worker process.
type AsynqServerConfig struct {
	Concurrency int
	Queue       string
}

// AsynqServer runs handler for every job pulled from Redis.
type AsynqServer struct {
	srv     *asynq.Server
	mux     *asynq.ServeMux
	handler Handler
	logger  *slog.Logger
}

// NewAsynqServer wires handler into an asynq server and mux.
func NewAsynqServer(redisOpt asynq.RedisConnOpt, config AsynqServerConfig, handler Handler, logger *slog.Logger) *AsynqServer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Queue == "" {
		config.Queue = "default"
	}

	s := &AsynqServer{
		handler: handler,
		logger:  logger.With(slog.String("component", "asynq_server")),
	}

	s.srv = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:  config.Concurrency,
		Queues:       map[string]int{config.Queue: 1},
		Logger:       newAsynqLogger(s.logger),
		ErrorHandler: asynq.ErrorHandlerFunc(s.handleError),
	})

	s.mux = asynq.NewServeMux()
	s.mux.HandleFunc(KindProcessImage, s.handle)

	return s
}

// Start begins pulling jobs. It does not block.
func (s *AsynqServer) Start() error {
	return s.srv.Start(s.mux)
}

// Shutdown stops fetching and waits for active jobs to finish.
func (s *AsynqServer) Shutdown() {
	s.srv.Shutdown()
}

func (s *AsynqServer) handle(ctx context.Context, t *asynq.Task) error {
	job, err := DecodeJob(t.Type(), t.Payload())
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := s.handler.Process(ctx, job); err != nil {
		if IsPermanent(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (s *AsynqServer) handleError(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	log := s.logger.With(
		slog.String("job_kind", t.Type()),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))

	if !isFinalAttempt(retried, maxRetry, err) {
		log.Warn("job attempt failed, will retry")
		return
	}

	job, decodeErr := DecodeJob(t.Type(), t.Payload())
	if decodeErr != nil {
		log.Error("dropping undecodable job", slog.String("decode_error", decodeErr.Error()))
		return
	}

	log.Error("job failed", slog.String("job_id", job.ID()))
	s.handler.Fail(ctx, job, err)
}

// isFinalAttempt reports whether asynq will not run the task again.
func isFinalAttempt(retried, maxRetry int, err error) bool {
	return retried >= maxRetry || errors.Is(err, asynq.SkipRetry)
}

// asynqLogger adapts slog to asynq.Logger.
type asynqLogger struct {
	logger *slog.Logger
	exit   func(code int)
}

func newAsynqLogger(l *slog.Logger) *asynqLogger {
	return &asynqLogger{logger: l, exit: osExit}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

// Fatal logs and exits, as asynq expects.
func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	l.exit(1)
}
