// Package service wires the snapshot source, ranking engine, refresh queue,
// worker pool and board into the component the HTTP API reads from.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/trendrank/internal/adapters/mq/queue"
	workerpool "github.com/okian/trendrank/internal/adapters/mq/worker"
	repository "github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/ranking"
	"github.com/okian/trendrank/internal/domain/types"
	"github.com/okian/trendrank/pkg/logger"
	"github.com/okian/trendrank/pkg/metrics"
)

const (
	defaultRefreshInterval = time.Second
	defaultRefreshTimeout  = 10 * time.Second
	defaultQueueSize       = 1
	statsInterval          = 5 * time.Second
	stopTimeout            = 30 * time.Second
)

// Listener reports changes in the underlying data.
type Listener interface {
	Run(ctx context.Context, onChange func(payload string)) error
}

// Service implements the API dependencies for the trend board.
type Service struct {
	mu sync.RWMutex

	// Core components
	source   repository.Source
	board    repository.Board
	engine   workerpool.Ranker
	listener Listener
	queue    eventqueue.Queue
	pool     *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	refreshInterval time.Duration
	refreshTimeout  time.Duration

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc
	loops     sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many refresh triggers may wait at once.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRefreshInterval sets the poll period. Zero disables polling.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithRefreshTimeout bounds one ranking pass.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// WithEngine sets the ranker used for every pass.
func WithEngine(e workerpool.Ranker) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithListener enables change-driven refreshes.
func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listener = l
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

// New constructs a Service reading from source and publishing to board.
func New(source repository.Source, board repository.Board, opts ...Option) *Service {
	s := &Service{
		source:          source,
		board:           board,
		engine:          ranking.NewEngine(),
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		refreshInterval: defaultRefreshInterval,
		refreshTimeout:  defaultRefreshTimeout,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the queue and worker pool, starts the poll and listen loops,
// and asks for a first pass.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil || s.board == nil {
		return fmt.Errorf("start: source and board are required: %w", ErrMissingComponent)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting trend service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.source, s.engine, s.board,
		workerpool.WithTimeout(s.refreshTimeout),
	)
	s.pool.Start(runCtx)

	if s.refreshInterval > 0 {
		s.loops.Add(1)
		go s.pollLoop(runCtx)
	}
	if s.listener != nil {
		s.loops.Add(1)
		go s.listenLoop(runCtx)
	}
	s.loops.Add(1)
	go s.statsLoop(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.enqueue(runCtx, model.ReasonStartup)

	s.logger.Info(ctx, "trend service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.Bool("listening", s.listener != nil),
	)

	return nil
}

// Stop gracefully shuts down the loops and the worker pool.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping trend service...")

	s.cancel()
	s.loops.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "trend service stopped")
}

// Refresh asks for a ranking pass. Returns false if the service is stopped or
// a pass is already pending.
func (s *Service) Refresh(ctx context.Context, reason string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	return s.enqueue(ctx, reason)
}

func (s *Service) enqueue(ctx context.Context, reason string) bool {
	t := model.Trigger{ID: uuid.NewString(), Reason: reason, At: time.Now()}
	ok := s.queue.Enqueue(ctx, t)
	if !ok {
		s.logger.Debug(ctx, "refresh already pending",
			logger.String("reason", reason),
			logger.String("trigger", t.ID),
		)
	}
	return ok
}

func (s *Service) pollLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx, model.ReasonPoll)
		}
	}
}

func (s *Service) listenLoop(ctx context.Context) {
	defer s.loops.Done()

	err := s.listener.Run(ctx, func(payload string) {
		s.logger.Debug(ctx, "change notification", logger.String("payload", payload))
		s.enqueue(ctx, model.ReasonNotify)
	})
	if err != nil {
		metrics.RecordErrorByComponent("service", "listener")
		s.logger.Error(ctx, "change listener stopped, relying on polling", logger.Error(err))
	}
}

func (s *Service) statsLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordSystemStats()
		}
	}
}

// Board returns the latest published ranking.
func (s *Service) Board(ctx context.Context) (types.Board, error) {
	defer observe(time.Now())
	return s.board.Latest(ctx)
}

// TopN returns the first n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	defer observe(time.Now())
	return s.board.TopN(ctx, n)
}

// Topic returns one ranked topic.
func (s *Service) Topic(ctx context.Context, id string) (model.RankedTopic, error) {
	defer observe(time.Now())
	return s.board.Topic(ctx, id)
}

func observe(start time.Time) {
	metrics.RecordBoardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"refreshInterval": s.refreshInterval.String(),
		"listening":       s.listener != nil,
	}

	if s.board != nil {
		stats["topics"] = s.board.Count(ctx)
	}

	if s.started {
		passes := s.pool.Stats()
		stats["uptime"] = time.Since(s.startedAt).Round(time.Second).String()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["passes"] = passes.Passes
		stats["failedPasses"] = passes.Failures
		stats["publishedBoards"] = passes.Published
		if !passes.LastPassAt.IsZero() {
			stats["lastPassAt"] = passes.LastPassAt
			stats["lastPassReason"] = passes.LastReason
			stats["lastPassDuration"] = passes.LastDuration.String()
		}
		if passes.LastError != "" {
			stats["lastError"] = passes.LastError
		}
	}

	return stats
}
