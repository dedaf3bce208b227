package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
)

//go:embed schema.sql
var schemaSQL string

// Writer inserts generated rows. It is used by the seeder only.
type Writer struct {
	db *sql.DB
}

// NewWriter returns a Writer using db.
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// EnsureSchema creates the tables and the change-notification triggers that
// publish on channel.
func (w *Writer) EnsureSchema(ctx context.Context, channel string) error {
	if channel == "" || strings.ContainsAny(channel, "'\"\\") {
		return fmt.Errorf("invalid notify channel %q", channel)
	}
	stmt := strings.ReplaceAll(schemaSQL, "{{channel}}", channel)
	if _, err := w.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Insert writes one batch of authors, topics and posts in a transaction.
func (w *Writer) Insert(ctx context.Context, batch model.Snapshot) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range batch.Authors {
		var created any
		if !a.AccountCreatedAt.IsZero() {
			created = a.AccountCreatedAt
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO authors (platform_author_id, username, bio, follower_count, is_verified,
				disinformation_incidents, account_created_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
			a.PlatformAuthorID, a.Username, a.Bio, a.FollowerCount, a.IsVerified,
			string(a.DisinformationIncidents), created,
		); err != nil {
			return fmt.Errorf("insert author %s: %w", a.PlatformAuthorID, err)
		}
	}

	for _, t := range batch.Topics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trending_topics (topic_id, topic_name, status, aggregate_velocity_score,
				total_posts, total_views, total_reposts, total_replies, first_detected_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.TopicName, t.Status, t.AggregateVelocityScore,
			t.TotalPosts, t.TotalViews, t.TotalReposts, t.TotalReplies, t.FirstDetectedAt, t.LastUpdatedAt,
		); err != nil {
			return fmt.Errorf("insert topic %s: %w", t.ID, err)
		}
	}

	for _, p := range batch.Posts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO posts (post_id, author_id, topic_id, platform, post_timestamp)
			VALUES ($1, $2, $3, $4, $5)`,
			p.PostID, p.AuthorID, p.TopicID, p.Platform, p.PostTimestamp,
		); err != nil {
			return fmt.Errorf("insert post %s: %w", p.PostID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Topics returns up to limit stored topics, oldest first.
func (w *Writer) Topics(ctx context.Context, limit int) ([]model.Topic, error) {
	rows, err := w.db.QueryContext(ctx, selectTopics+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var out []model.Topic
	for rows.Next() {
		var r topicRow
		if err := rows.Scan(&r.TopicID, &r.TopicName, &r.Status, &r.Velocity,
			&r.TotalPosts, &r.TotalViews, &r.TotalReposts, &r.TotalReplies,
			&r.FirstDetectedAt, &r.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		t, err := r.toModel(now)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTopic overwrites the counters and velocity of an existing topic.
func (w *Writer) UpdateTopic(ctx context.Context, t model.Topic) error {
	res, err := w.db.ExecContext(ctx,
		`UPDATE trending_topics SET total_posts = $2, total_views = $3, total_reposts = $4,
			total_replies = $5, aggregate_velocity_score = $6, last_updated_at = $7
		WHERE topic_id = $1`,
		t.ID, t.TotalPosts, t.TotalViews, t.TotalReposts, t.TotalReplies, t.AggregateVelocityScore, t.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update topic %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update topic %s: no such topic", t.ID)
	}
	return nil
}
