// Package worker runs ranking passes for refresh triggers read off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
	"github.com/okian/trendrank/pkg/logger"
	"github.com/okian/trendrank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPassTimeout  = 10 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Trigger is what workers read off the queue.
type Trigger = model.Trigger

// Source loads the snapshot a pass ranks.
type Source interface {
	Load(ctx context.Context) (model.Snapshot, error)
}

// Ranker orders topics for one pass.
type Ranker interface {
	Rank(topics []model.Topic, posts []model.Post, authors []model.Author, now time.Time) []model.RankedTopic
}

// Publisher receives finished boards.
type Publisher interface {
	Publish(ctx context.Context, b types.Board) (bool, error)
}

// Queue defines how workers receive triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Trigger
}

// Worker runs ranking passes using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// A pass in progress is allowed to finish.
	Shutdown(ctx context.Context) error
}

// Stats summarizes the passes run by a pool.
type Stats struct {
	Passes       int64         `json:"passes"`
	Failures     int64         `json:"failures"`
	Published    int64         `json:"published"`
	LastPassAt   time.Time     `json:"last_pass_at"`
	LastReason   string        `json:"last_reason"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
}

// tracker is shared by the workers of a pool.
type tracker struct {
	passes    atomic.Int64
	failures  atomic.Int64
	published atomic.Int64
	active    atomic.Int64

	mu   sync.Mutex
	last Stats
}

func (t *tracker) begin() {
	metrics.UpdateWorkerActiveCount(int(t.active.Add(1)))
}

func (t *tracker) end(reason string, at time.Time, took time.Duration, published bool, err error) {
	metrics.UpdateWorkerActiveCount(int(t.active.Add(-1)))
	t.passes.Add(1)
	if published {
		t.published.Add(1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failures.Add(1)
		t.last.LastError = err.Error()
		return
	}
	t.last.LastPassAt = at
	t.last.LastReason = reason
	t.last.LastDuration = took
	t.last.LastError = ""
}

func (t *tracker) snapshot() Stats {
	t.mu.Lock()
	s := t.last
	t.mu.Unlock()
	s.Passes = t.passes.Load()
	s.Failures = t.failures.Load()
	s.Published = t.published.Load()
	return s
}

// InMemoryWorker implements Worker for refresh triggers.
type InMemoryWorker struct {
	queue  Queue
	source Source
	ranker Ranker
	board  Publisher
	name   string

	timeout time.Duration
	now     func() time.Time
	stats   *tracker

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, source Source, ranker Ranker, board Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		source:   source,
		ranker:   ranker,
		board:    board,
		name:     "worker",
		timeout:  defaultPassTimeout,
		now:      time.Now,
		stats:    &tracker{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("refresher"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			if err := w.Refresh(ctx, t); err != nil {
				w.logger.Error(ctx, "ranking pass failed",
					logger.String("trigger", t.ID),
					logger.String("reason", t.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	w.once.Do(func() { close(w.shutdown) })
}

// Refresh runs one ranking pass: load, rank, publish. On error the board is
// left as it was.
func (w *InMemoryWorker) Refresh(ctx context.Context, t Trigger) error { //nolint:gocritic // hugeParam: Trigger is passed by value for channel semantics
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	w.stats.begin()
	var (
		published bool
		err       error
		now       time.Time
	)
	defer func() {
		took := time.Since(start)
		metrics.RecordWorkerProcessingLatency(float64(took.Milliseconds()))
		w.stats.end(t.Reason, now, took, published, err)
	}()

	var snap model.Snapshot
	loadStart := time.Now()
	snap, err = w.source.Load(ctx)
	metrics.RecordSourceLoadLatency(float64(time.Since(loadStart).Microseconds()) / 1000)
	if err != nil {
		w.fail(metrics.StageLoad)
		err = fmt.Errorf("load snapshot: %w", err)
		return err
	}
	metrics.UpdateSnapshotSize(len(snap.Posts), len(snap.Authors))

	now = w.now()
	var ranked []model.RankedTopic
	ranked, err = w.rank(snap, now)
	if err != nil {
		w.fail(metrics.StageRank)
		return err
	}

	published, err = w.board.Publish(ctx, types.Board{ComputedAt: now, Topics: ranked})
	if err != nil {
		w.fail(metrics.StagePublish)
		err = fmt.Errorf("publish board: %w", err)
		return err
	}

	metrics.RecordRankingPass(t.Reason, float64(time.Since(start).Milliseconds()), len(ranked))
	if published {
		metrics.UpdateLastPass(now.Unix())
	}
	w.logger.Debug(ctx, "ranking pass finished",
		logger.String("trigger", t.ID),
		logger.String("reason", t.Reason),
		logger.Int("topics", len(ranked)),
		logger.Int("posts", len(snap.Posts)),
		logger.Bool("published", published),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

func (w *InMemoryWorker) rank(snap model.Snapshot, now time.Time) (ranked []model.RankedTopic, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rank topics: %v", r)
		}
	}()
	return w.ranker.Rank(snap.Topics, snap.Posts, snap.Authors, now), nil
}

func (w *InMemoryWorker) fail(stage string) {
	metrics.RecordRefreshError(stage)
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", stage+"_error")
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *tracker

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, q Queue, source Source, ranker Ranker, board Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &tracker{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		workerOpts = append(workerOpts, withTracker(pool.stats))
		pool.workers[i] = NewInMemoryWorker(q, source, ranker, board, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns counters aggregated over all workers.
func (p *Pool) Stats() Stats {
	return p.stats.snapshot()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Warn(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, w := range p.workers {
		w.signal()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}

	return nil
}
