package server

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/lightsduel/internal/middleware"
)

// Job is one unit of work run by the pool
type Job func(ctx context.Context)

// WorkerPool runs jobs on a fixed number of goroutines
type WorkerPool struct {
	size   int
	jobs   chan Job
	logger *slog.Logger
}

// NewWorkerPool creates a pool of size workers with a queue of queueLen pending jobs
func NewWorkerPool(size, queueLen int, logger *slog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan Job, queueLen),
		logger: logger.With(slog.String("component", "workers")),
	}
}

// Run starts the workers and blocks until ctx is done
func (p *WorkerPool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		g.Go(func() error {
			p.work(ctx)
			return nil
		})
	}
	p.logger.Info("worker pool started", slog.Int("workers", p.size))
	err := g.Wait()
	p.logger.Info("worker pool stopped")
	return err
}

// Submit queues a job, blocking while the queue is full
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) work(ctx context.Context) {
	for {
		select {
		case job := <-p.jobs:
			p.run(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// run executes one job; a panic is logged and the worker carries on
func (p *WorkerPool) run(ctx context.Context, job Job) {
	middleware.Safely(p.logger, func() { job(ctx) })
}
