// Package queue holds pending refresh triggers between their producers
// (poll ticker, change listener, HTTP) and the refresh workers.
//
// The queue is bounded and small on purpose: a trigger that finds the queue
// full is dropped, because a pending trigger already guarantees a fresh pass.
package queue

import (
	"context"
	"sync"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/pkg/metrics"
)

const defaultQueueCapacity = 1

// Trigger is the payload flowing through the queue.
type Trigger = model.Trigger

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger to the queue.
	// Returns false if the queue is full or closed and the trigger was dropped.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns the channel triggers are delivered on.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the current number of queued triggers.
	Len(ctx context.Context) int

	// Close stops accepting triggers. Queued triggers can still be drained.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	triggers chan Trigger
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.triggers = make(chan Trigger, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a trigger to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.triggers <- t:
		metrics.RecordTriggerEnqueued(t.Reason)
		q.updateMetrics()
		return true
	default:
		metrics.RecordTriggerDropped(t.Reason)
		return false
	}
}

// Dequeue returns the trigger channel. All consumers share it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Trigger {
	return q.triggers
}

// Len returns the current number of queued triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.updateMetrics()
}

func (q *InMemoryQueue) updateMetrics() int {
	size := len(q.triggers)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue. Closing twice returns ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	close(q.triggers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
