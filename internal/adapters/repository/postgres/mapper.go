package postgres

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/internal/domain/model"
)

// Defaults for optional columns.
const (
	defaultStatus   = "active"
	defaultPlatform = "twitter"
)

// authorRow mirrors one authors row as scanned, nulls included.
type authorRow struct {
	PlatformAuthorID sql.NullString
	Username         sql.NullString
	IsVerified       sql.NullBool
	FollowerCount    sql.NullInt64
	Bio              sql.NullString
	Incidents        sql.NullString
	AccountCreatedAt sql.NullTime
	CreatedAt        sql.NullTime
}

// toModel converts the row. An author with no creation date at all is dated
// loadedAt, so it counts as brand new.
func (r authorRow) toModel(loadedAt time.Time) (model.Author, error) {
	id := strings.TrimSpace(r.PlatformAuthorID.String)
	if !r.PlatformAuthorID.Valid || id == "" {
		return model.Author{}, fmt.Errorf("%w: author without platform_author_id", repository.ErrInvalidRow)
	}

	a := model.Author{
		PlatformAuthorID:        id,
		Username:                r.Username.String,
		IsVerified:              r.IsVerified.Valid && r.IsVerified.Bool,
		Bio:                     r.Bio.String,
		DisinformationIncidents: model.NoIncidents,
		AccountCreatedAt:        loadedAt,
	}
	if r.FollowerCount.Int64 < 0 {
		return model.Author{}, fmt.Errorf("%w: author %q with negative follower_count", repository.ErrInvalidRow, id)
	}
	if r.FollowerCount.Valid {
		a.FollowerCount = int(r.FollowerCount.Int64)
	}
	if r.Incidents.Valid {
		a.DisinformationIncidents = model.Incidents(r.Incidents.String)
	}
	switch {
	case r.AccountCreatedAt.Valid:
		a.AccountCreatedAt = r.AccountCreatedAt.Time
	case r.CreatedAt.Valid:
		a.AccountCreatedAt = r.CreatedAt.Time
	}
	return a, nil
}

// postRow mirrors one posts row as scanned.
type postRow struct {
	PostID        sql.NullString
	AuthorID      sql.NullString
	TopicID       sql.NullString
	Platform      sql.NullString
	PostTimestamp sql.NullTime
}

func (r postRow) toModel() (model.Post, error) {
	if !r.AuthorID.Valid || strings.TrimSpace(r.AuthorID.String) == "" {
		return model.Post{}, fmt.Errorf("%w: post %q without author_id", repository.ErrInvalidRow, r.PostID.String)
	}
	if !r.TopicID.Valid || strings.TrimSpace(r.TopicID.String) == "" {
		return model.Post{}, fmt.Errorf("%w: post %q without topic_id", repository.ErrInvalidRow, r.PostID.String)
	}
	if !r.PostTimestamp.Valid {
		return model.Post{}, fmt.Errorf("%w: post %q without post_timestamp", repository.ErrInvalidRow, r.PostID.String)
	}

	p := model.Post{
		PostID:        r.PostID.String,
		AuthorID:      r.AuthorID.String,
		TopicID:       r.TopicID.String,
		Platform:      r.Platform.String,
		PostTimestamp: r.PostTimestamp.Time,
	}
	if strings.TrimSpace(p.Platform) == "" {
		p.Platform = defaultPlatform
	}
	return p, nil
}

// topicRow mirrors one trending_topics row as scanned.
type topicRow struct {
	TopicID         sql.NullString
	TopicName       sql.NullString
	Status          sql.NullString
	Velocity        sql.NullFloat64
	TotalPosts      sql.NullInt64
	TotalViews      sql.NullInt64
	TotalReposts    sql.NullInt64
	TotalReplies    sql.NullInt64
	FirstDetectedAt sql.NullTime
	LastUpdatedAt   sql.NullTime
}

// toModel converts the row. Missing detection times fall back to loadedAt.
func (r topicRow) toModel(loadedAt time.Time) (model.Topic, error) {
	if !r.TopicID.Valid || strings.TrimSpace(r.TopicID.String) == "" {
		return model.Topic{}, fmt.Errorf("%w: topic without topic_id", repository.ErrInvalidRow)
	}
	if !r.TopicName.Valid || strings.TrimSpace(r.TopicName.String) == "" {
		return model.Topic{}, fmt.Errorf("%w: topic %q without topic_name", repository.ErrInvalidRow, r.TopicID.String)
	}
	if v := r.Velocity.Float64; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return model.Topic{}, fmt.Errorf("%w: topic %q with aggregate_velocity_score %v", repository.ErrInvalidRow, r.TopicID.String, v)
	}
	for name, n := range map[string]int64{
		"total_posts":   r.TotalPosts.Int64,
		"total_views":   r.TotalViews.Int64,
		"total_reposts": r.TotalReposts.Int64,
		"total_replies": r.TotalReplies.Int64,
	} {
		if n < 0 {
			return model.Topic{}, fmt.Errorf("%w: topic %q with negative %s", repository.ErrInvalidRow, r.TopicID.String, name)
		}
	}

	t := model.Topic{
		ID:                     r.TopicID.String,
		TopicName:              r.TopicName.String,
		Status:                 r.Status.String,
		AggregateVelocityScore: r.Velocity.Float64,
		TotalPosts:             int(r.TotalPosts.Int64),
		TotalViews:             r.TotalViews.Int64,
		TotalReposts:           r.TotalReposts.Int64,
		TotalReplies:           r.TotalReplies.Int64,
		FirstDetectedAt:        loadedAt,
		LastUpdatedAt:          loadedAt,
	}
	if t.Status == "" {
		t.Status = defaultStatus
	}
	if r.FirstDetectedAt.Valid {
		t.FirstDetectedAt = r.FirstDetectedAt.Time
	}
	if r.LastUpdatedAt.Valid {
		t.LastUpdatedAt = r.LastUpdatedAt.Time
	}
	return t, nil
}
