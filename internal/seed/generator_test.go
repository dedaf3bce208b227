package seed_test

import (
	"strings"
	"testing"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	"github.com/okian/trendrank/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func TestGenerator_Author(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := seed.NewGenerator(seed.WithSeed(42), seed.WithClock(fixedClock))

		Convey("When generating many authors", func() {
			var verified, incidents, fresh int
			ids := map[string]bool{}
			const n = 2000
			for i := 0; i < n; i++ {
				a := gen.Author()
				ids[a.PlatformAuthorID] = true

				So(a.PlatformAuthorID, ShouldStartWith, "auth_")
				So(a.FollowerCount, ShouldBeBetweenOrEqual, 1000, 100_999)
				So(a.Bio, ShouldStartWith, "Expert in ")
				So(a.AccountCreatedAt.After(now), ShouldBeFalse)
				So(now.Sub(a.AccountCreatedAt), ShouldBeLessThanOrEqualTo, 5*365*24*time.Hour)

				if a.IsVerified {
					verified++
				}
				if a.DisinformationIncidents.Present() {
					incidents++
				}
				if now.Sub(a.AccountCreatedAt) < 30*24*time.Hour {
					fresh++
				}
			}

			Convey("Then ids are unique", func() {
				So(ids, ShouldHaveLength, n)
			})

			Convey("Then the shares follow the live distribution", func() {
				So(float64(verified)/n, ShouldAlmostEqual, 0.3, 0.05)
				So(float64(incidents)/n, ShouldAlmostEqual, 0.1, 0.03)
				So(float64(fresh)/n, ShouldAlmostEqual, 0.1, 0.03)
			})
		})
	})
}

func TestGenerator_Topic(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := seed.NewGenerator(seed.WithSeed(7), seed.WithClock(fixedClock))

		Convey("When generating a topic", func() {
			tp := gen.Topic()

			Convey("Then its fields are in range", func() {
				So(tp.ID, ShouldStartWith, "topic_")
				So(tp.Status, ShouldEqual, "active")
				So(tp.AggregateVelocityScore, ShouldBeBetweenOrEqual, 0, 100)
				So(tp.TotalPosts, ShouldBeBetweenOrEqual, 0, 999)
				So(tp.TotalViews, ShouldBeBetweenOrEqual, 0, 99_999)
				So(tp.TotalReposts, ShouldBeBetweenOrEqual, 0, 4_999)
				So(tp.TotalReplies, ShouldBeBetweenOrEqual, 0, 9_999)
				So(now.Sub(tp.FirstDetectedAt), ShouldBeLessThanOrEqualTo, 7*24*time.Hour)
				So(tp.LastUpdatedAt, ShouldEqual, now)
			})

			Convey("And bumping it", func() {
				bumped := gen.Bump(tp)

				Convey("Then counters only grow and the id is kept", func() {
					So(bumped.ID, ShouldEqual, tp.ID)
					So(bumped.TotalPosts-tp.TotalPosts, ShouldBeBetweenOrEqual, 1, 10)
					So(bumped.TotalViews-tp.TotalViews, ShouldBeBetweenOrEqual, 100, 1099)
					So(bumped.TotalReposts-tp.TotalReposts, ShouldBeBetweenOrEqual, 5, 54)
					So(bumped.TotalReplies-tp.TotalReplies, ShouldBeBetweenOrEqual, 10, 109)
				})
			})
		})
	})
}

func TestGenerator_Batch(t *testing.T) {
	Convey("Given a seeded generator and no existing topics", t, func() {
		gen := seed.NewGenerator(seed.WithSeed(1), seed.WithClock(fixedClock))
		b := gen.Batch(nil)

		Convey("Then the batch has the expected shape", func() {
			So(len(b.Authors), ShouldBeBetweenOrEqual, 3, 5)
			So(len(b.Topics), ShouldBeBetweenOrEqual, 2, 4)
			So(b.Updated, ShouldBeEmpty)
			So(len(b.Posts), ShouldBeBetweenOrEqual, 5, 15)
		})

		Convey("Then posts reference batch authors and batch topics", func() {
			authors := map[string]bool{}
			for _, a := range b.Authors {
				authors[a.PlatformAuthorID] = true
			}
			topics := map[string]bool{}
			for _, tp := range b.Topics {
				topics[tp.ID] = true
			}
			for _, p := range b.Posts {
				So(authors[p.AuthorID], ShouldBeTrue)
				So(topics[p.TopicID], ShouldBeTrue)
				So(p.Platform, ShouldEqual, "twitter")
				So(now.Sub(p.PostTimestamp), ShouldBeBetweenOrEqual, 0, 24*time.Hour)
			}
		})
	})

	Convey("Given existing topics", t, func() {
		gen := seed.NewGenerator(seed.WithSeed(3), seed.WithClock(fixedClock))
		var existing []model.Topic
		for i := 0; i < 8; i++ {
			existing = append(existing, gen.Topic())
		}

		Convey("When generating many batches", func() {
			var created, updated int
			for i := 0; i < 200; i++ {
				b := gen.Batch(existing)
				created += len(b.Topics)
				updated += len(b.Updated)
				for _, u := range b.Updated {
					pos := -1
					for j, e := range existing[:5] {
						if e.ID == u.ID {
							pos = j
						}
					}
					So(pos, ShouldBeGreaterThanOrEqualTo, 0)
				}
			}

			Convey("Then about half of the topic slots are updates of the first five", func() {
				So(float64(updated)/float64(created+updated), ShouldAlmostEqual, 0.5, 0.08)
			})
		})
	})

	Convey("Given two generators with the same seed", t, func() {
		a := seed.NewGenerator(seed.WithSeed(99), seed.WithClock(fixedClock)).Batch(nil)
		b := seed.NewGenerator(seed.WithSeed(99), seed.WithClock(fixedClock)).Batch(nil)

		Convey("Then they produce identical batches", func() {
			So(a, ShouldResemble, b)
			So(strings.HasPrefix(a.Posts[0].PostID, "post_"), ShouldBeTrue)
		})
	})
}
