package worker

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/korjavin/docquizbot/logger"
)

// ErrQueueFull is returned by Submit when no slot is free in the queue.
var ErrQueueFull = errors.New("worker queue is full")

// Job is a unit of slow work such as extraction or question generation.
type Job func(ctx context.Context)

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	jobs        chan Job
	concurrency int
	log         *logger.Logger
}

func NewPool(concurrency, queue int, baseLog *logger.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if queue < 1 {
		queue = 1
	}
	return &Pool{
		jobs:        make(chan Job, queue),
		concurrency: concurrency,
		log:         baseLog.With("component", "WorkerPool"),
	}
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("Starting worker pool", "concurrency", p.concurrency, "queue", cap(p.jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			p.runLoop(gctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("Worker loop stopped", "worker_id", workerID)
			return
		case job := <-p.jobs:
			p.runJob(ctx, workerID, job)
		}
	}
}

func (p *Pool) runJob(ctx context.Context, workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Job panic", "worker_id", workerID, "panic", r)
		}
	}()
	job(ctx)
}
