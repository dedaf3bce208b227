// Package ranking turns snapshots of topics, posts and authors into an
// ordered trend ranking.
//
// Everything here is a pure function of its inputs and an explicit "now".
// A pass recomputes from scratch; there is no incremental update path.
package ranking

import (
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/domain/scoring"
)

// ScoredAuthor is an author with the credibility derived for one pass.
type ScoredAuthor struct {
	model.Author
	CredibilityScore int
}

// ScoreAuthors scores every author once as of now.
func ScoreAuthors(authors []model.Author, scorer *scoring.CredibilityScorer, now time.Time) []ScoredAuthor {
	out := make([]ScoredAuthor, len(authors))
	for i, a := range authors {
		out[i] = ScoredAuthor{Author: a, CredibilityScore: scorer.Score(a, now)}
	}
	return out
}

// Directory resolves post author ids to scored authors.
// When several authors share an id the first one wins.
type Directory struct {
	byID map[string]ScoredAuthor
}

// NewDirectory indexes scored authors by platform author id.
func NewDirectory(authors []ScoredAuthor) *Directory {
	d := &Directory{byID: make(map[string]ScoredAuthor, len(authors))}
	for _, a := range authors {
		if _, ok := d.byID[a.PlatformAuthorID]; !ok {
			d.byID[a.PlatformAuthorID] = a
		}
	}
	return d
}

// Lookup returns the scored author for id.
func (d *Directory) Lookup(id string) (ScoredAuthor, bool) {
	a, ok := d.byID[id]
	return a, ok
}

// Score returns the credibility for id, 0 when it does not resolve.
func (d *Directory) Score(id string) int {
	return d.byID[id].CredibilityScore
}

// Verified reports whether id resolves to a verified author.
func (d *Directory) Verified(id string) bool {
	return d.byID[id].IsVerified
}

// groupPostsByTopic buckets posts by topic id, keeping input order.
func groupPostsByTopic(posts []model.Post) map[string][]model.Post {
	byTopic := make(map[string][]model.Post)
	for _, p := range posts {
		byTopic[p.TopicID] = append(byTopic[p.TopicID], p)
	}
	return byTopic
}
