// Package seed generates synthetic authors, topics and posts and writes them
// to a sink, for local runs and demos.
package seed

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/trendrank/internal/domain/model"
)

// Batch is one round of generated rows.
type Batch struct {
	Authors []model.Author
	Topics  []model.Topic // new topics
	Updated []model.Topic // existing topics with bumped counters
	Posts   []model.Post
}

// Snapshot returns the rows to insert. Updated topics are not included.
func (b Batch) Snapshot() model.Snapshot {
	return model.Snapshot{Authors: b.Authors, Topics: b.Topics, Posts: b.Posts}
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes the generated rows reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
		}
	}
}

// WithClock sets the reference time rows are generated around.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator produces rows with the distributions of live traffic.
// It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // synthetic data
		now: time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// id returns prefix plus a uuid drawn from the generator's source, so seeded
// runs repeat their ids.
func (g *Generator) id(prefix string) string {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		u = uuid.New()
	}
	return prefix + u.String()
}

func (g *Generator) pick(items []string) string {
	return items[g.rng.Intn(len(items))]
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}

// Author returns a random author. Most accounts are established; one in ten
// is days old.
func (g *Generator) Author() model.Author {
	now := g.now()

	var age float64
	switch r := g.rng.Float64(); {
	case r < establishedShare:
		age = g.rng.Float64()*(establishedMaxDays-establishedMinDays) + establishedMinDays
	case r < youngShare:
		age = g.rng.Float64()*youngSpanDays + youngMinDays
	default:
		age = g.rng.Float64() * newMaxDays
	}

	incidents := model.NoIncidents
	if g.rng.Float64() > incidentAbove {
		incidents = model.Incidents(fmt.Sprintf(`[{"date":%q,"description":"Minor incident"}]`, now.UTC().Format(time.RFC3339)))
	}

	return model.Author{
		PlatformAuthorID:        g.id("auth_"),
		Username:                g.pick(sampleUsernames) + "_" + strconv.Itoa(g.rng.Intn(usernameSuffix)),
		IsVerified:              g.rng.Float64() > verifiedAbove,
		FollowerCount:           g.rng.Intn(followerSpread) + minFollowers,
		Bio:                     "Expert in " + g.pick(sampleTopics),
		DisinformationIncidents: incidents,
		AccountCreatedAt:        now.Add(-days(age)),
	}
}

// Topic returns a new active topic first detected within the last week.
func (g *Generator) Topic() model.Topic {
	now := g.now()
	return model.Topic{
		ID:                     g.id("topic_"),
		TopicName:              g.pick(sampleTopics),
		Status:                 activeStatus,
		AggregateVelocityScore: g.rng.Float64() * maxVelocity,
		TotalPosts:             g.rng.Intn(maxTopicPosts),
		TotalViews:             int64(g.rng.Intn(maxTopicViews)),
		TotalReposts:           int64(g.rng.Intn(maxTopicReposts)),
		TotalReplies:           int64(g.rng.Intn(maxTopicReplies)),
		FirstDetectedAt:        now.Add(-time.Duration(g.rng.Float64() * float64(detectionWindow))),
		LastUpdatedAt:          now,
	}
}

// Bump returns t with grown counters and a fresh velocity.
func (g *Generator) Bump(t model.Topic) model.Topic {
	t.TotalPosts += g.rng.Intn(bumpPosts) + bumpPostsMin
	t.TotalViews += int64(g.rng.Intn(bumpViews) + bumpViewsMin)
	t.TotalReposts += int64(g.rng.Intn(bumpReposts) + bumpRepostsMin)
	t.TotalReplies += int64(g.rng.Intn(bumpReplies) + bumpRepliesMin)
	t.AggregateVelocityScore = g.rng.Float64() * maxVelocity
	t.LastUpdatedAt = g.now()
	return t
}

// Post returns a post by author on topic within the last day.
func (g *Generator) Post(authorID, topicID string) model.Post {
	return model.Post{
		PostID:        g.id("post_"),
		AuthorID:      authorID,
		TopicID:       topicID,
		Platform:      postPlatform,
		PostTimestamp: g.now().Add(-time.Duration(g.rng.Float64() * float64(postWindow))),
	}
}

// Batch generates 3-5 authors, 2-4 topic slots and 5-15 posts. Each topic
// slot updates one of the first existing topics half of the time and creates
// a topic otherwise. Posts are written by the batch's authors on any existing
// or new topic.
func (g *Generator) Batch(existing []model.Topic) Batch {
	var b Batch

	for i := g.rng.Intn(authorSpread) + minAuthors; i > 0; i-- {
		b.Authors = append(b.Authors, g.Author())
	}

	candidates := existing
	if len(candidates) > updateCandidate {
		candidates = candidates[:updateCandidate]
	}
	for i := g.rng.Intn(topicSpread) + minTopicSlots; i > 0; i-- {
		if len(candidates) > 0 && g.rng.Float64() > updateChance {
			b.Updated = append(b.Updated, g.Bump(candidates[g.rng.Intn(len(candidates))]))
			continue
		}
		b.Topics = append(b.Topics, g.Topic())
	}

	all := make([]model.Topic, 0, len(existing)+len(b.Topics))
	all = append(all, existing...)
	all = append(all, b.Topics...)
	if len(all) == 0 {
		return b
	}
	for i := g.rng.Intn(postSpread) + minPosts; i > 0; i-- {
		author := b.Authors[g.rng.Intn(len(b.Authors))]
		topic := all[g.rng.Intn(len(all))]
		b.Posts = append(b.Posts, g.Post(author.PlatformAuthorID, topic.ID))
	}
	return b
}
