package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/ladder/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestChallenge(t *testing.T) {
	convey.Convey("Given a challenge between two players", t, func() {
		c := model.Challenge{
			ID:          "c1",
			Status:      model.StatusPending,
			Solicitator: "a",
			Category:    "C1",
			Players:     []string{"a", "b"},
		}

		convey.Convey("Then membership checks use the player list", func() {
			convey.So(c.HasPlayer("a"), convey.ShouldBeTrue)
			convey.So(c.HasPlayer("b"), convey.ShouldBeTrue)
			convey.So(c.HasPlayer("z"), convey.ShouldBeFalse)
		})

		convey.Convey("Then an empty filter matches it", func() {
			convey.So(model.ChallengeFilter{}.Matches(c), convey.ShouldBeTrue)
		})

		convey.Convey("Then a player filter matches only participants", func() {
			convey.So(model.ChallengeFilter{PlayerID: "b"}.Matches(c), convey.ShouldBeTrue)
			convey.So(model.ChallengeFilter{PlayerID: "z"}.Matches(c), convey.ShouldBeFalse)
		})

		convey.Convey("When encoding to JSON", func() {
			when := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
			c.DateHourChallenge = &when
			raw, err := json.Marshal(c)
			convey.So(err, convey.ShouldBeNil)

			var doc map[string]any
			convey.So(json.Unmarshal(raw, &doc), convey.ShouldBeNil)

			convey.Convey("Then the stored field names are preserved", func() {
				convey.So(doc, convey.ShouldContainKey, "dateHourChallenge")
				convey.So(doc, convey.ShouldContainKey, "dateHourRequest")
				convey.So(doc, convey.ShouldContainKey, "solicitator")
				convey.So(doc["status"], convey.ShouldEqual, "PENDING")
				convey.So(doc, convey.ShouldNotContainKey, "match")
				convey.So(doc, convey.ShouldNotContainKey, "dateHourResponse")
			})
		})
	})
}

func TestParseResponseStatus(t *testing.T) {
	convey.Convey("Given response status strings", t, func() {
		convey.Convey("Then valid answers are normalised", func() {
			st, ok := model.ParseResponseStatus(" accepted ")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(st, convey.ShouldEqual, model.StatusAccepted)

			st, ok = model.ParseResponseStatus("Denied")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(st, convey.ShouldEqual, model.StatusDenied)

			_, ok = model.ParseResponseStatus("CANCELED")
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then lifecycle-only states are rejected", func() {
			for _, s := range []string{"PENDING", "DONE", "", "maybe"} {
				_, ok := model.ParseResponseStatus(s)
				convey.So(ok, convey.ShouldBeFalse)
			}
		})
	})
}

func TestCategoryAndMatch(t *testing.T) {
	convey.Convey("Given a category and a match", t, func() {
		cat := model.Category{Name: "A", Players: []string{"p1", "p2"}}
		m := model.Match{ID: "m1", Players: []string{"p1", "p2"}, Def: "p1"}

		convey.Convey("Then membership is reported per record", func() {
			convey.So(cat.HasPlayer("p2"), convey.ShouldBeTrue)
			convey.So(cat.HasPlayer("p3"), convey.ShouldBeFalse)
			convey.So(m.HasPlayer(m.Def), convey.ShouldBeTrue)
		})

		convey.Convey("Then the category key is encoded as 'category'", func() {
			raw, err := json.Marshal(cat)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(raw), convey.ShouldContainSubstring, `"category":"A"`)
		})
	})
}
