// Package async runs queued extract jobs on a bounded worker pool.
package async

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/internal/pipeline"
	"github.com/portdesk/sof-extractor/internal/repository"
)

// Job is one queued document extraction.
type Job struct {
	JobID       uuid.UUID
	Document    pipeline.Document
	SubmittedAt time.Time
}

// Queue feeds queued jobs to a fixed set of workers. Each worker runs
// the pipeline processor and advances the job row to its terminal state.
type Queue struct {
	proc    *pipeline.Processor
	jobs    repository.ExtractJobRepository
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(proc *pipeline.Processor, jobs repository.ExtractJobRepository, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		jobs:    jobs,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.run(ctx, workerID, job)
					cancel()
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) run(ctx context.Context, workerID int, job Job) {
	if err := q.jobs.MarkRunning(ctx, job.JobID); err != nil {
		q.logger.Error("job transition failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
	}

	out, err := q.proc.ProcessDocument(ctx, job.Document)
	if err != nil {
		_ = q.jobs.FinishFailure(ctx, job.JobID, err.Error())
		q.logger.Error("processing failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
		return
	}

	payload, err := json.Marshal(out.Result)
	if err != nil {
		_ = q.jobs.FinishFailure(ctx, job.JobID, "encode result: "+err.Error())
		q.logger.Error("processing failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
		return
	}
	if err := q.jobs.FinishSuccess(ctx, job.JobID, payload, out.Result.ConfidenceScore); err != nil {
		q.logger.Error("job transition failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
		return
	}
	q.logger.Info("processed job successfully",
		"worker_id", workerID,
		"job_id", job.JobID,
		"events", out.Result.EventsFound(),
		"cache_hit", out.CacheHit,
	)
}

// Enqueue hands a job to the pool. A full channel blocks the caller
// rather than dropping the job.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.JobID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued job for processing", "job_id", job.JobID, "filename", job.Document.Filename)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.JobID)
		q.ch <- job
	}
	return nil
}

// Shutdown stops intake and waits for the workers to drain, or for ctx.
func (q *Queue) Shutdown(ctx context.Context) {
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
