package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/trendrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIncidents_Present(t *testing.T) {
	Convey("Given encoded incident lists", t, func() {
		Convey("When the list is empty", func() {
			Convey("Then no incidents are present", func() {
				So(model.NoIncidents.Present(), ShouldBeFalse)
				So(model.Incidents(" [ ] ").Present(), ShouldBeFalse)
				So(model.Incidents("").Present(), ShouldBeFalse)
				So(model.Incidents("   ").Present(), ShouldBeFalse)
			})
		})

		Convey("When the list has entries", func() {
			in := model.Incidents(`[{"date":"2024-01-01","description":"Minor incident"}]`)

			Convey("Then incidents are present", func() {
				So(in.Present(), ShouldBeTrue)
			})
		})

		Convey("When the value is valid JSON but not a list", func() {
			Convey("Then it counts as empty", func() {
				So(model.Incidents(`{}`).Present(), ShouldBeFalse)
				So(model.Incidents(`null`).Present(), ShouldBeFalse)
				So(model.Incidents(`"none"`).Present(), ShouldBeFalse)
				So(model.Incidents(`3`).Present(), ShouldBeFalse)
			})
		})

		Convey("When the value does not parse", func() {
			Convey("Then incidents are assumed present", func() {
				So(model.Incidents(`[broken`).Present(), ShouldBeTrue)
				So(model.Incidents(`spam account`).Present(), ShouldBeTrue)
			})
		})
	})
}

func TestRankedTopic_JSON(t *testing.T) {
	Convey("Given a ranked topic", t, func() {
		rt := model.RankedTopic{
			Topic: model.Topic{
				ID:              "t-1",
				TopicName:       "AI Regulation",
				Status:          "hot",
				FirstDetectedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				LastUpdatedAt:   time.Date(2025, 1, 1, 1, 30, 0, 0, time.UTC),
			},
			Rank:       1,
			TimeActive: "1.5h",
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(rt)
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("Then topic fields are flattened next to ranking fields", func() {
				So(fields["topic_id"], ShouldEqual, "t-1")
				So(fields["topic_name"], ShouldEqual, "AI Regulation")
				So(fields["rank"], ShouldEqual, float64(1))
				So(fields["time_active"], ShouldEqual, "1.5h")
			})
		})
	})
}
