// Package worker trains player models off the job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/swish/internal/adapters/mq/queue"
	"github.com/okian/swish/internal/domain/model"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/pkg/logger"
	"github.com/okian/swish/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Trainer fits a model for one player.
type Trainer interface {
	Train(ctx context.Context, records []shot.Record, player string) (*training.Model, error)
}

// Dataset returns a private copy of the shots used for training.
type Dataset interface {
	Snapshot(ctx context.Context) []shot.Record
}

// Store keeps the latest model per player.
type Store interface {
	Put(ctx context.Context, m *training.Model) error
}

// Releaser clears the in-flight mark for a player once its job ends.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Tracker records job status transitions.
type Tracker interface {
	Update(ctx context.Context, st model.JobStatus)
}

// Deps bundles what a worker needs to run a job end to end.
type Deps struct {
	Queue    Queue
	Dataset  Dataset
	Trainer  Trainer
	Store    Store
	Inflight Releaser
	Tracker  Tracker
}

func (d Deps) validate() error {
	if d.Queue == nil || d.Dataset == nil || d.Trainer == nil || d.Store == nil {
		return errors.New("worker: queue, dataset, trainer and store are required")
	}
	return nil
}

// InMemoryWorker runs training jobs one at a time.
type InMemoryWorker struct {
	deps    Deps
	name    string
	now     func() time.Time
	timeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker over deps.
func NewInMemoryWorker(deps Deps, opts ...Option) (*InMemoryWorker, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	w := &InMemoryWorker{
		deps:     deps,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w, nil
}

// Run consumes jobs until ctx is canceled, Shutdown is called, or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.deps.Queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "training job failed",
					logger.String("job_id", job.JobID),
					logger.String("player", job.Player),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after the current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	st := model.Queued(job).Start(w.now())
	w.track(ctx, st)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	m, err := w.deps.Trainer.Train(ctx, w.deps.Dataset.Snapshot(ctx), job.Player)
	if err == nil {
		err = w.deps.Store.Put(ctx, m)
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "training_error")
		w.finish(ctx, st.Fail(w.now(), err))
		return fmt.Errorf("job %s: %w", job.JobID, err)
	}

	w.finish(ctx, st.Finish(w.now(), m.Capacity, m.Accuracy))
	w.logger.Debug(ctx, "training job done",
		logger.String("job_id", job.JobID),
		logger.String("player", job.Player),
		logger.Int("capacity", m.Capacity),
		logger.Float64("accuracy", m.Accuracy),
	)
	return nil
}

// finish releases the player before reporting the final status, so a request
// that sees the final status may queue a new job.
func (w *InMemoryWorker) finish(ctx context.Context, st model.JobStatus) {
	if w.deps.Inflight != nil {
		w.deps.Inflight.Unrecord(ctx, st.Player)
	}
	w.track(ctx, st)
}

func (w *InMemoryWorker) track(ctx context.Context, st model.JobStatus) {
	if w.deps.Tracker != nil {
		w.deps.Tracker.Update(ctx, st)
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates workerCount workers. A count below one uses half the CPUs.
func NewPool(workerCount int, deps Deps, opts ...Option) (*Pool, error) {
	if workerCount < 1 {
		workerCount = max(1, runtime.NumCPU()/2)
	}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    deps.Queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		w, err := NewInMemoryWorker(deps, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		if err != nil {
			return nil, err
		}
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop signals every worker and waits briefly for each.
func (p *Pool) Stop() {
	select {
	case <-p.shutdown:
		return
	default:
		close(p.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue, lets workers drain it, and waits up to ctx's
// deadline or poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
