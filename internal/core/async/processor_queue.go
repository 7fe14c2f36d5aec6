package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

// FileProcessor is the part of core.Processor the workers need.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (core.DocumentResult, error)
	Profile() constants.Profile
}

type ProcessorQueue struct {
	proc    FileProcessor
	jobs    repository.JobRepository
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc FileProcessor, jobs repository.JobRepository, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		jobs:    jobs,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := common.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithJobID(ctx, job.ID.String())
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	if err := q.jobs.MarkRunning(ctx, job.ID); err != nil {
		q.logger.Error("mark running failed", "worker_id", workerID, "job_id", job.ID, "error", err)
	}

	res, err := q.proc.ProcessFile(ctx, job.Path)
	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "error", err)
		if ferr := q.jobs.Fail(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			q.logger.Error("record failure failed", "job_id", job.ID, "error", ferr)
		}
		return
	}
	if err := q.jobs.Finish(context.WithoutCancel(ctx), job.ID, res); err != nil {
		q.logger.Error("record result failed", "job_id", job.ID, "error", err)
		return
	}
	q.logger.Info("processed file successfully",
		"worker_id", workerID,
		"job_id", job.ID,
		"path", job.Path,
		"type", res.DocumentType,
		"outcome", res.Outcome,
		"queued_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Submit records a QUEUED job for path and enqueues it.
func (q *ProcessorQueue) Submit(ctx context.Context, path string) (uuid.UUID, error) {
	row, err := q.jobs.Queue(ctx, path, q.proc.Profile())
	if err != nil {
		return uuid.Nil, err
	}
	_, traceID := common.EnsureRequestID(ctx)
	job := Job{ID: row.ID, Path: path, SubmittedAt: time.Now(), TraceID: traceID}
	if err := q.Enqueue(ctx, job); err != nil {
		_ = q.jobs.Fail(ctx, row.ID, err.Error())
		return row.ID, err
	}
	return row.ID, nil
}

func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "job_id", job.ID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
