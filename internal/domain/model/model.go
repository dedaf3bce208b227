// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Author is an identity known to one platform.
type Author struct {
	PlatformAuthorID        string    `json:"platform_author_id"` // join key to Post.AuthorID
	Username                string    `json:"username"`
	IsVerified              bool      `json:"is_verified"`
	FollowerCount           int       `json:"follower_count"`
	Bio                     string    `json:"bio"`
	DisinformationIncidents Incidents `json:"disinformation_incidents"`
	AccountCreatedAt        time.Time `json:"account_created_at"` // zero when unknown
}

// Post is one authored item belonging to exactly one topic and one author.
type Post struct {
	PostID        string    `json:"post_id"`
	AuthorID      string    `json:"author_id"` // may not resolve to an Author
	TopicID       string    `json:"topic_id"`
	Platform      string    `json:"platform"`
	PostTimestamp time.Time `json:"post_timestamp"`
}

// Topic is an aggregation unit with counters supplied by the data source.
type Topic struct {
	ID                     string    `json:"topic_id"`
	TopicName              string    `json:"topic_name"`
	Status                 string    `json:"status"`
	AggregateVelocityScore float64   `json:"aggregate_velocity_score"`
	TotalPosts             int       `json:"total_posts"`
	TotalViews             int64     `json:"total_views"`
	TotalReposts           int64     `json:"total_reposts"`
	TotalReplies           int64     `json:"total_replies"`
	FirstDetectedAt        time.Time `json:"first_detected_at"`
	LastUpdatedAt          time.Time `json:"last_updated_at"`
}

// PlatformCount is the number of posts a topic has on one platform.
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// RankedTopic is the output record of a ranking pass. One per input Topic.
type RankedTopic struct {
	Topic

	Rank                     int             `json:"rank"`
	FinalTrendScore          float64         `json:"final_trend_score"`
	SignalReason             string          `json:"signal_reason"`
	EarlySignalerBonus       float64         `json:"early_signaler_bonus"`
	AverageSourceCredibility float64         `json:"average_source_credibility"`
	VerifiedSourceCount      int             `json:"verified_source_count"`
	TotalUniqueAuthors       int             `json:"total_unique_authors"`
	PlatformDistribution     []PlatformCount `json:"platform_distribution"`
	TotalEngagement          int64           `json:"total_engagement"`
	AvgEngagementPerPost     float64         `json:"avg_engagement_per_post"`
	TimeActive               string          `json:"time_active"`
}

// Snapshot is the set of collections a ranking pass reads.
type Snapshot struct {
	Authors  []Author
	Posts    []Post
	Topics   []Topic
	LoadedAt time.Time
}

// Incidents holds the encoded disinformation incident list of an author,
// normally a JSON array.
type Incidents string

// NoIncidents is the encoding of an empty incident list.
const NoIncidents Incidents = "[]"

// Present reports whether the author has recorded incidents.
//
// A JSON array counts when it has at least one element; any other valid JSON
// value counts as empty. Text that does not parse is treated as having
// incidents unless it is blank or the literal empty list.
func (i Incidents) Present() bool {
	raw := strings.TrimSpace(string(i))
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw != "" && raw != string(NoIncidents)
	}
	list, ok := v.([]any)
	return ok && len(list) > 0
}
