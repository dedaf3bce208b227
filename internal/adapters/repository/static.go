package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

// StaticSource serves a snapshot held in memory. It backs the service when no
// database is configured and feeds dry runs of the seeder.
type StaticSource struct {
	mu   sync.RWMutex
	snap model.Snapshot
	now  func() time.Time
}

// NewStaticSource returns a source that serves snap.
func NewStaticSource(snap model.Snapshot) *StaticSource {
	return &StaticSource{snap: snap, now: time.Now}
}

// Load implements Source.Load. LoadedAt is stamped on every call.
func (s *StaticSource) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := model.Snapshot{
		Authors:  append([]model.Author(nil), s.snap.Authors...),
		Posts:    append([]model.Post(nil), s.snap.Posts...),
		Topics:   append([]model.Topic(nil), s.snap.Topics...),
		LoadedAt: s.now(),
	}
	return out, nil
}

// Replace swaps the served snapshot.
func (s *StaticSource) Replace(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Append adds rows to the served snapshot.
func (s *StaticSource) Append(snap model.Snapshot) {
	s.mu.Lock()
	s.snap.Authors = append(s.snap.Authors, snap.Authors...)
	s.snap.Posts = append(s.snap.Posts, snap.Posts...)
	s.snap.Topics = append(s.snap.Topics, snap.Topics...)
	s.mu.Unlock()
}
