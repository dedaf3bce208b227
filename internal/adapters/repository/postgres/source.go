package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

const (
	selectAuthors = `SELECT platform_author_id, username, is_verified, follower_count, bio,
		disinformation_incidents::text, account_created_at, created_at
		FROM authors ORDER BY created_at NULLS LAST, platform_author_id`

	selectPosts = `SELECT post_id, author_id, topic_id, platform, post_timestamp
		FROM posts ORDER BY post_timestamp, post_id`

	selectTopics = `SELECT topic_id, topic_name, status, aggregate_velocity_score,
		total_posts, total_views, total_reposts, total_replies,
		first_detected_at, last_updated_at
		FROM trending_topics ORDER BY first_detected_at NULLS LAST, topic_id`
)

// Source loads snapshots from the authors, posts and trending_topics tables.
type Source struct {
	db  *sql.DB
	now func() time.Time
}

// NewSource returns a Source reading through db.
func NewSource(db *sql.DB) *Source {
	return &Source{db: db, now: time.Now}
}

// Load reads all three tables inside one read-only repeatable-read
// transaction so the snapshot is consistent. Any invalid row fails the load.
func (s *Source) Load(ctx context.Context) (model.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := model.Snapshot{LoadedAt: s.now()}

	if snap.Authors, err = loadAuthors(ctx, tx, snap.LoadedAt); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Posts, err = loadPosts(ctx, tx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Topics, err = loadTopics(ctx, tx, snap.LoadedAt); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// Ping checks the connection.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func loadAuthors(ctx context.Context, tx *sql.Tx, loadedAt time.Time) ([]model.Author, error) {
	rows, err := tx.QueryContext(ctx, selectAuthors)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var r authorRow
		if err := rows.Scan(&r.PlatformAuthorID, &r.Username, &r.IsVerified, &r.FollowerCount, &r.Bio,
			&r.Incidents, &r.AccountCreatedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		a, err := r.toModel(loadedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return out, nil
}

func loadPosts(ctx context.Context, tx *sql.Tx) ([]model.Post, error) {
	rows, err := tx.QueryContext(ctx, selectPosts)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var out []model.Post
	for rows.Next() {
		var r postRow
		if err := rows.Scan(&r.PostID, &r.AuthorID, &r.TopicID, &r.Platform, &r.PostTimestamp); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func loadTopics(ctx context.Context, tx *sql.Tx, loadedAt time.Time) ([]model.Topic, error) {
	rows, err := tx.QueryContext(ctx, selectTopics)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var out []model.Topic
	for rows.Next() {
		var r topicRow
		if err := rows.Scan(&r.TopicID, &r.TopicName, &r.Status, &r.Velocity,
			&r.TotalPosts, &r.TotalViews, &r.TotalReposts, &r.TotalReplies,
			&r.FirstDetectedAt, &r.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		t, err := r.toModel(loadedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}
