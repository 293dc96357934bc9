package repository_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/metrics"
)

// seriesValue returns the sample count of a histogram or the value of a
// counter labelled store/operation, or 0 when the series does not exist.
func seriesValue(name, store, operation string) float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["store"] != store || labels["operation"] != operation {
				continue
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMemoryStoreInstrumentation(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(ctx)
		defer s.Close()

		const (
			latency = "ladder_repository_operation_duration_milliseconds"
			failed  = "ladder_repository_errors_total"
		)

		Convey("When lookups and deletes miss", func() {
			getBefore := seriesValue(latency, "memory", "get_challenge")
			delBefore := seriesValue(latency, "memory", "delete_match")
			errGetBefore := seriesValue(failed, "memory", "get_challenge")
			errDelBefore := seriesValue(failed, "memory", "delete_match")

			_, getErr := s.GetChallenge(ctx, "missing")
			delErr := s.DeleteMatch(ctx, "missing")

			Convey("Then the calls are timed but not counted as store errors", func() {
				So(errors.Is(getErr, model.ErrNotFound), ShouldBeTrue)
				So(errors.Is(delErr, model.ErrNotFound), ShouldBeTrue)
				So(seriesValue(latency, "memory", "get_challenge"), ShouldEqual, getBefore+1)
				So(seriesValue(latency, "memory", "delete_match"), ShouldEqual, delBefore+1)
				So(seriesValue(failed, "memory", "get_challenge"), ShouldEqual, errGetBefore)
				So(seriesValue(failed, "memory", "delete_match"), ShouldEqual, errDelBefore)
			})
		})

		Convey("When a replace loses the version guard", func() {
			c, err := s.InsertChallenge(ctx, model.Challenge{Players: []string{"a", "b"}, Solicitator: "a", Status: model.StatusPending})
			So(err, ShouldBeNil)
			_, err = s.ReplaceChallenge(ctx, c)
			So(err, ShouldBeNil)
			errBefore := seriesValue(failed, "memory", "replace_challenge")

			_, err = s.ReplaceChallenge(ctx, c)

			Convey("Then the conflict is an outcome, not a store error", func() {
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
				So(seriesValue(failed, "memory", "replace_challenge"), ShouldEqual, errBefore)
			})
		})
	})
}
