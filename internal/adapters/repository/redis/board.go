// Package redis stores the published ranking board in Redis so several
// service instances can serve the same ranking.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
	"github.com/okian/trendrank/pkg/metrics"
)

const (
	backendName = "redis"
	defaultKey  = "trendrank:board"
)

// publishScript writes the board only when it is newer than the stored one.
// KEYS[1] board JSON, KEYS[2] computed-at in unix microseconds.
// ARGV[1] computed-at, ARGV[2] board JSON, ARGV[3] ttl in ms (0 = none).
var publishScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SET', KEYS[2], ARGV[1])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithKey sets the key the board is stored under.
func WithKey(key string) Option {
	return func(b *Board) {
		if key != "" {
			b.key = key
		}
	}
}

// WithTTL expires the stored board when nothing republishes it in time.
func WithTTL(ttl time.Duration) Option {
	return func(b *Board) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// Board is a repository.Board backed by Redis. The decoded board is cached
// per computed-at stamp so repeated reads cost one GET of the stamp.
type Board struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration

	mu       sync.RWMutex
	cached   *types.Board
	cachedAt int64
	byID     map[string]int
}

// NewBoard creates a Redis board on client.
func NewBoard(client goredis.UniversalClient, opts ...Option) *Board {
	b := &Board{
		client: client,
		key:    defaultKey,
	}

	// Apply all options
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Board) stampKey() string { return b.key + ":at" }

// Publish implements repository.Board.Publish.
func (b *Board) Publish(ctx context.Context, board types.Board) (bool, error) {
	payload, err := json.Marshal(board)
	if err != nil {
		return false, fmt.Errorf("encode board: %w", err)
	}

	res, err := publishScript.Run(ctx, b.client,
		[]string{b.key, b.stampKey()},
		board.ComputedAt.UnixMicro(), payload, b.ttl.Milliseconds(),
	).Int()
	if err != nil {
		metrics.RecordErrorByComponent("redis-board", "publish")
		return false, fmt.Errorf("publish board: %w", err)
	}

	stale := res == 0
	metrics.RecordBoardPublish(backendName, stale)
	return !stale, nil
}

// Latest implements repository.Board.Latest.
func (b *Board) Latest(ctx context.Context) (types.Board, error) {
	cur, _, err := b.load(ctx)
	if err != nil {
		return types.Board{}, err
	}
	return *cur, nil
}

// TopN implements repository.Board.TopN.
func (b *Board) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, repository.ErrInvalidLimit
	}
	cur, _, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return cur.Entries(n), nil
}

// Topic implements repository.Board.Topic.
func (b *Board) Topic(ctx context.Context, id string) (model.RankedTopic, error) {
	cur, byID, err := b.load(ctx)
	if err != nil {
		return model.RankedTopic{}, err
	}
	i, ok := byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedTopic{}, repository.ErrNotFound
	}
	return cur.Topics[i], nil
}

// Count implements repository.Board.Count. Errors count as an empty board.
func (b *Board) Count(ctx context.Context) int {
	cur, _, err := b.load(ctx)
	if err != nil {
		return 0
	}
	return len(cur.Topics)
}

// Ping checks the connection.
func (b *Board) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// load returns the current board, decoding it only when the stamp moved.
func (b *Board) load(ctx context.Context) (*types.Board, map[string]int, error) {
	raw, err := b.client.Get(ctx, b.stampKey()).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil, repository.ErrNoBoard
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read board stamp: %w", err)
	}
	stamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("parse board stamp %q: %w", raw, err)
	}

	b.mu.RLock()
	if b.cached != nil && b.cachedAt == stamp {
		cur, byID := b.cached, b.byID
		b.mu.RUnlock()
		return cur, byID, nil
	}
	b.mu.RUnlock()

	payload, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil, repository.ErrNoBoard
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read board: %w", err)
	}
	var board types.Board
	if err := json.Unmarshal(payload, &board); err != nil {
		return nil, nil, fmt.Errorf("decode board: %w", err)
	}

	byID := make(map[string]int, len(board.Topics))
	for i, t := range board.Topics {
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = i
		}
	}

	b.mu.Lock()
	// Key the cache by the decoded board, which may be newer than stamp.
	b.cached, b.cachedAt, b.byID = &board, board.ComputedAt.UnixMicro(), byID
	b.mu.Unlock()

	return &board, byID, nil
}
