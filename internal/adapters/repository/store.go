// Package repository defines the snapshot source and ranking board
// interfaces, their errors, and the in-memory implementations.
package repository

import (
	"context"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/types"
)

// Source loads the collections a ranking pass reads.
type Source interface {
	// Load returns a consistent snapshot of authors, posts and topics.
	Load(ctx context.Context) (model.Snapshot, error)
}

// Board holds the latest published ranking.
type Board interface {
	// Publish stores b unless the board already holds a pass computed after it.
	// Returns true if b became the latest board.
	Publish(ctx context.Context, b types.Board) (bool, error)

	// Latest returns the most recent board.
	// Returns ErrNoBoard before the first publish.
	Latest(ctx context.Context) (types.Board, error)

	// TopN returns the first n leaderboard entries.
	// Returns ErrInvalidLimit for n < 1.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Topic returns one ranked topic by id.
	// Returns ErrNotFound if the topic is not on the board.
	Topic(ctx context.Context, id string) (model.RankedTopic, error)

	// Count returns the number of topics on the latest board.
	Count(ctx context.Context) int
}
