package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

// ErrUnknownTopic is returned when updating a topic the sink does not hold.
var ErrUnknownTopic = errors.New("unknown topic")

// Sink stores generated rows. postgres.Writer implements it.
type Sink interface {
	Topics(ctx context.Context, limit int) ([]model.Topic, error)
	Insert(ctx context.Context, batch model.Snapshot) error
	UpdateTopic(ctx context.Context, t model.Topic) error
}

// MemorySink keeps generated rows in memory. It also serves them as a
// snapshot source, so a dry run can rank what it generated.
type MemorySink struct {
	mu   sync.RWMutex
	snap model.Snapshot
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Topics returns up to limit topics in insertion order.
func (m *MemorySink) Topics(_ context.Context, limit int) ([]model.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.snap.Topics)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]model.Topic(nil), m.snap.Topics[:n]...), nil
}

// Insert appends a batch.
func (m *MemorySink) Insert(ctx context.Context, batch model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Authors = append(m.snap.Authors, batch.Authors...)
	m.snap.Topics = append(m.snap.Topics, batch.Topics...)
	m.snap.Posts = append(m.snap.Posts, batch.Posts...)
	return nil
}

// UpdateTopic replaces the stored topic with the same id.
func (m *MemorySink) UpdateTopic(_ context.Context, t model.Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.snap.Topics {
		if m.snap.Topics[i].ID == t.ID {
			m.snap.Topics[i] = t
			return nil
		}
	}
	return fmt.Errorf("update topic %s: %w", t.ID, ErrUnknownTopic)
}

// Load returns a copy of everything stored so far.
func (m *MemorySink) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.Snapshot{
		Authors:  append([]model.Author(nil), m.snap.Authors...),
		Posts:    append([]model.Post(nil), m.snap.Posts...),
		Topics:   append([]model.Topic(nil), m.snap.Topics...),
		LoadedAt: time.Now(),
	}, nil
}
