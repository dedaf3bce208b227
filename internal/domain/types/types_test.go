package types_test

import (
	"testing"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	types "github.com/okian/trendrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ranked(id string, rank int, score float64) model.RankedTopic {
	return model.RankedTopic{
		Topic:           model.Topic{ID: id, TopicName: "Topic " + id, Status: "active"},
		Rank:            rank,
		FinalTrendScore: score,
		SignalReason:    "Explosive velocity growth",
	}
}

func TestEntry(t *testing.T) {
	Convey("Given a ranked topic", t, func() {
		rt := ranked("t-1", 3, 64.5)

		Convey("When building its entry", func() {
			entry := types.NewEntry(rt)

			Convey("Then it should carry the leaderboard fields", func() {
				So(entry.Rank, ShouldEqual, 3)
				So(entry.TopicID, ShouldEqual, "t-1")
				So(entry.TopicName, ShouldEqual, "Topic t-1")
				So(entry.FinalTrendScore, ShouldEqual, 64.5)
				So(entry.SignalReason, ShouldEqual, "Explosive velocity growth")
				So(entry.Status, ShouldEqual, "active")
			})
		})

		Convey("When creating an entry with zero values", func() {
			entry := types.Entry{}

			Convey("Then it should have default values", func() {
				So(entry.Rank, ShouldEqual, 0)
				So(entry.TopicID, ShouldEqual, "")
				So(entry.FinalTrendScore, ShouldEqual, 0.0)
			})
		})
	})
}

func TestBoard(t *testing.T) {
	Convey("Given a board with three topics", t, func() {
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		board := types.Board{
			ComputedAt: at,
			Topics: []model.RankedTopic{
				ranked("a", 1, 90),
				ranked("b", 2, 50),
				ranked("c", 3, 10),
			},
		}

		Convey("When taking the top two entries", func() {
			entries := board.Entries(2)

			Convey("Then they keep rank order", func() {
				So(entries, ShouldHaveLength, 2)
				So(entries[0].TopicID, ShouldEqual, "a")
				So(entries[1].TopicID, ShouldEqual, "b")
			})
		})

		Convey("When asking for more entries than exist", func() {
			Convey("Then every topic is returned", func() {
				So(board.Entries(10), ShouldHaveLength, 3)
				So(board.Entries(0), ShouldHaveLength, 3)
			})
		})

		Convey("When comparing computation times", func() {
			older := types.Board{ComputedAt: at.Add(-time.Second)}

			Convey("Then the later board is newer", func() {
				So(board.NewerThan(older), ShouldBeTrue)
				So(older.NewerThan(board), ShouldBeFalse)
				So(board.NewerThan(board), ShouldBeFalse)
			})
		})
	})

	Convey("Given an empty board", t, func() {
		board := types.Board{}

		Convey("Then it has no entries", func() {
			So(board.Entries(5), ShouldBeEmpty)
		})
	})
}
