// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	jobqueue "github.com/okian/swish/internal/adapters/mq/queue"
	workerpool "github.com/okian/swish/internal/adapters/mq/worker"
	"github.com/okian/swish/internal/adapters/repository"
	"github.com/okian/swish/internal/domain/clean"
	"github.com/okian/swish/internal/domain/dedupe"
	"github.com/okian/swish/internal/domain/model"
	"github.com/okian/swish/internal/domain/scoring"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/internal/domain/types"
	"github.com/okian/swish/pkg/logger"
	"github.com/okian/swish/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service owns the shot dataset, the training pipeline and the model registry.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *repository.Registry
	trainer  *training.Trainer
	deduper  dedupe.Deduper
	queue    *jobqueue.InMemoryQueue
	pool     *workerpool.Pool
	cleaner  *clean.Cleaner

	// Dataset
	dataMu  sync.RWMutex
	records []shot.Record
	counts  map[string]int

	// Jobs
	jobsMu   sync.RWMutex
	jobs     map[string]model.JobStatus
	jobOrder []string
	byPlayer map[string]string

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	maxJobs     int
	jobTimeout  time.Duration
	now         func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of training workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting training jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the in-flight player set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxJobs bounds how many finished job statuses are remembered.
func WithMaxJobs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxJobs = n
		}
	}
}

// WithJobTimeout bounds a single training job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithTrainer sets the trainer used by workers.
func WithTrainer(t *training.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithRegistry sets the model registry.
func WithRegistry(r *repository.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cleaner:     clean.New(),
		counts:      make(map[string]int),
		jobs:        make(map[string]model.JobStatus),
		byPlayer:    make(map[string]string),
		workerCount: max(1, runtime.NumCPU()/2),
		queueSize:   1024,
		dedupeSize:  10000,
		maxJobs:     10000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.registry == nil {
		s.registry = repository.NewRegistry()
	}
	if s.trainer == nil {
		s.trainer = training.NewTrainer(scoring.NewForestScorer())
	}
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	pool, err := workerpool.NewPool(s.workerCount, workerpool.Deps{
		Queue:    s.queue,
		Dataset:  s,
		Trainer:  s.trainer,
		Store:    s.registry,
		Inflight: s.deduper,
		Tracker:  s,
	}, workerpool.WithJobTimeout(s.jobTimeout))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)
	go s.collectSystemMetrics(runCtx)

	s.started = true
	s.logger.Info(ctx, "shot service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue, cancels jobs still running and fails whatever is left.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping shot service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(stopCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not stop cleanly", logger.Error(err))
	}
	s.cancel()
	if n := s.failPending(ctx); n > 0 {
		s.logger.Warn(ctx, "unfinished training jobs failed on stop", logger.Int("jobs", n))
	}

	s.started = false
	s.logger.Info(ctx, "shot service stopped")
}

// failPending marks every job still queued or running as failed and releases
// its player. Callers hold mu.
func (s *Service) failPending(ctx context.Context) int {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	now := s.now()
	var n int
	for id, st := range s.jobs {
		if st.State.Terminal() {
			continue
		}
		s.jobs[id] = st.Fail(now, types.ErrStopped)
		s.deduper.Unrecord(ctx, st.Player)
		n++
	}
	return n
}

func (s *Service) collectSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	numGC := metrics.CollectSystem(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			numGC = metrics.CollectSystem(numGC)
		}
	}
}

// LoadShots replaces the dataset with records.
func (s *Service) LoadShots(ctx context.Context, records []shot.Record) {
	s.dataMu.Lock()
	s.records = append([]shot.Record(nil), records...)
	s.counts = shot.Players(s.records)
	shots, players := len(s.records), len(s.counts)
	s.dataMu.Unlock()

	metrics.UpdateDatasetSize(shots, players)
	s.logger.Info(ctx, "shots loaded", logger.Int("shots", shots), logger.Int("players", players))
}

// AddShots cleans raw rows and appends the kept records to the dataset.
func (s *Service) AddShots(ctx context.Context, t clean.Table) (clean.Report, error) {
	records, report, err := s.cleaner.Clean(t)
	if err != nil {
		return report, fmt.Errorf("clean shots: %w", err)
	}

	s.dataMu.Lock()
	s.records = append(s.records, records...)
	for _, r := range records {
		s.counts[r.Player]++
	}
	shots, players := len(s.records), len(s.counts)
	s.dataMu.Unlock()

	metrics.RecordShotsIngested(report.RowsKept, report.RowsDropped)
	metrics.UpdateDatasetSize(shots, players)
	s.logger.Debug(ctx, "shots added",
		logger.Int("kept", report.RowsKept),
		logger.Int("dropped", report.RowsDropped),
	)
	return report, nil
}

// Snapshot returns a copy of the dataset. Workers train on snapshots so
// concurrent uploads never change a set mid-search.
func (s *Service) Snapshot(_ context.Context) []shot.Record {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return append([]shot.Record(nil), s.records...)
}

// Shots returns the cleaned shots for player.
func (s *Service) Shots(_ context.Context, player string) ([]shot.Record, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	if s.counts[player] == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownPlayer, player)
	}
	return shot.FilterPlayer(s.records, player).Records, nil
}

// Players lists every player with shots, sorted by name.
func (s *Service) Players(ctx context.Context) []types.PlayerSummary {
	s.dataMu.RLock()
	out := make([]types.PlayerSummary, 0, len(s.counts))
	for p, n := range s.counts {
		out = append(out, types.PlayerSummary{Player: p, Shots: n})
	}
	s.dataMu.RUnlock()

	for i := range out {
		m, err := s.registry.Get(ctx, out[i].Player)
		out[i].Trained = err == nil && m.Trained()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out
}

// RequestTraining queues a training job for player. A player with a job
// already in flight gets that job's status back with duplicate set.
func (s *Service) RequestTraining(ctx context.Context, player string) (model.JobStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.JobStatus{}, false, types.ErrNotStarted
	}

	s.dataMu.RLock()
	n := s.counts[player]
	s.dataMu.RUnlock()
	if n == 0 {
		return model.JobStatus{}, false, fmt.Errorf("%w: %s", types.ErrUnknownPlayer, player)
	}

	s.jobsMu.Lock()
	if s.deduper.SeenAndRecord(ctx, player) {
		// A worker reports the final status just before it releases the
		// player, so a finished or forgotten job does not count as in flight.
		if st, ok := s.jobs[s.byPlayer[player]]; ok && !st.State.Terminal() {
			s.jobsMu.Unlock()
			metrics.RecordJobDuplicate()
			return st, true, nil
		}
	}
	job := model.NewTrainJob(player, s.now())
	st := model.Queued(job)
	s.remember(st)
	s.byPlayer[player] = job.JobID
	s.jobsMu.Unlock()

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, player)
		s.jobsMu.Lock()
		delete(s.jobs, job.JobID)
		s.jobsMu.Unlock()
		if errors.Is(err, jobqueue.ErrFull) || errors.Is(err, jobqueue.ErrClosed) {
			return model.JobStatus{}, false, fmt.Errorf("%w: %w", types.ErrBackpressure, err)
		}
		return model.JobStatus{}, false, err
	}

	metrics.RecordJobQueued()
	s.logger.Debug(ctx, "training job queued",
		logger.String("job_id", job.JobID),
		logger.String("player", player),
	)
	return st, false, nil
}

// Update records a job status reported by a worker.
func (s *Service) Update(_ context.Context, st model.JobStatus) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if _, ok := s.jobs[st.JobID]; !ok {
		s.jobOrder = append(s.jobOrder, st.JobID)
	}
	s.jobs[st.JobID] = st
}

// remember stores st and forgets the oldest finished jobs beyond maxJobs.
// Callers hold jobsMu.
func (s *Service) remember(st model.JobStatus) {
	s.jobs[st.JobID] = st
	s.jobOrder = append(s.jobOrder, st.JobID)
	if len(s.jobOrder) <= s.maxJobs {
		return
	}
	kept := s.jobOrder[:0]
	excess := len(s.jobOrder) - s.maxJobs
	for _, id := range s.jobOrder {
		cur, ok := s.jobs[id]
		switch {
		case !ok:
		case excess > 0 && cur.State.Terminal():
			delete(s.jobs, id)
			excess--
		default:
			kept = append(kept, id)
		}
	}
	s.jobOrder = kept
}

// Job returns the status of a training job.
func (s *Service) Job(_ context.Context, id string) (model.JobStatus, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	st, ok := s.jobs[id]
	if !ok {
		return model.JobStatus{}, fmt.Errorf("%w: %s", types.ErrJobNotFound, id)
	}
	return st, nil
}

// Model returns the player's current model.
func (s *Service) Model(ctx context.Context, player string) (*training.Model, error) {
	return s.registry.Get(ctx, player)
}

// Predict answers a shot probability query from the player's current model.
func (s *Service) Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error) {
	m, err := s.registry.Get(ctx, req.Player)
	if err != nil {
		return types.PredictResponse{}, err
	}
	p, err := m.PredictProbability(req.ShotX, req.ShotY, req.Distance, req.ShotType)
	if err != nil {
		return types.PredictResponse{}, err
	}
	return types.PredictResponse{
		Player:      m.Player,
		Probability: p,
		Made:        p > 0.5,
		Capacity:    m.Capacity,
		Accuracy:    m.Accuracy,
	}, nil
}

// TopN returns the top n trained players by holdout accuracy.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.registry.TopN(ctx, n)
}

// Rank returns the player's leaderboard row.
func (s *Service) Rank(ctx context.Context, player string) (repository.Entry, error) {
	return s.registry.Rank(ctx, player)
}

// GetStats returns a snapshot of the dataset, job and worker state.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	st := types.Stats{
		Started:    s.started,
		Workers:    s.workerCount,
		QueueSize:  s.queueSize,
		DedupeSize: s.dedupeSize,
		Models:     s.registry.Count(ctx),
		Jobs:       make(map[string]int, 4),
	}

	s.dataMu.RLock()
	st.Shots, st.Players = len(s.records), len(s.counts)
	s.dataMu.RUnlock()

	s.jobsMu.RLock()
	for _, j := range s.jobs {
		st.Jobs[string(j.State)]++
	}
	s.jobsMu.RUnlock()

	if s.started {
		st.QueueLength = s.queue.Len(ctx)
		st.InFlight = int(s.deduper.Size())
	}
	return st
}
