package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
	"github.com/okian/trendrank/pkg/metrics"
)

const memoryBackend = "memory"

// published is an immutable view of one board plus its topic index.
type published struct {
	board types.Board
	byID  map[string]int // topic id -> position in board.Topics
}

// MemoryBoard is an in-process Board. Writers serialize on a mutex; readers
// load the current view from an atomic pointer and never block.
type MemoryBoard struct {
	mu      sync.Mutex
	current atomic.Pointer[published]
}

// NewMemoryBoard constructs an empty board.
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{}
}

// Publish implements Board.Publish.
func (m *MemoryBoard) Publish(_ context.Context, b types.Board) (bool, error) {
	byID := make(map[string]int, len(b.Topics))
	for i, t := range b.Topics {
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = i
		}
	}

	m.mu.Lock()
	if cur := m.current.Load(); cur != nil && !b.NewerThan(cur.board) {
		m.mu.Unlock()
		metrics.RecordBoardPublish(memoryBackend, true)
		return false, nil
	}
	m.current.Store(&published{board: b, byID: byID})
	m.mu.Unlock()

	metrics.RecordBoardPublish(memoryBackend, false)
	return true, nil
}

// Latest implements Board.Latest.
func (m *MemoryBoard) Latest(_ context.Context) (types.Board, error) {
	cur := m.current.Load()
	if cur == nil {
		return types.Board{}, ErrNoBoard
	}
	return cur.board, nil
}

// TopN implements Board.TopN.
func (m *MemoryBoard) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	cur := m.current.Load()
	if cur == nil {
		return nil, ErrNoBoard
	}
	return cur.board.Entries(n), nil
}

// Topic implements Board.Topic.
func (m *MemoryBoard) Topic(_ context.Context, id string) (model.RankedTopic, error) {
	cur := m.current.Load()
	if cur == nil {
		return model.RankedTopic{}, ErrNoBoard
	}
	i, ok := cur.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedTopic{}, ErrNotFound
	}
	return cur.board.Topics[i], nil
}

// Count implements Board.Count.
func (m *MemoryBoard) Count(_ context.Context) int {
	cur := m.current.Load()
	if cur == nil {
		return 0
	}
	return len(cur.board.Topics)
}
