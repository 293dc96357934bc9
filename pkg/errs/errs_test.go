package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/ladder/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	errKindA = errors.New("kind a")
	errKindB = errors.New("kind b")
)

func TestErrors(t *testing.T) {
	Convey("Given an operation-scoped error", t, func() {
		cause := errors.New("disk on fire")

		Convey("When wrapping with a kind", func() {
			err := errs.WrapKind("store.put", errKindA, cause)

			Convey("Then both the kind and the cause match", func() {
				So(errors.Is(err, errKindA), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(errors.Is(err, errKindB), ShouldBeFalse)
				So(err.Error(), ShouldEqual, "store.put: kind a: disk on fire")
			})

			Convey("And re-wrapping keeps the kind visible", func() {
				outer := fmt.Errorf("outer: %w", errs.Wrap("svc.op", err))
				So(errors.Is(outer, errKindA), ShouldBeTrue)
				So(errs.KindOf(outer, errKindB, errKindA), ShouldEqual, errKindA)
			})
		})

		Convey("When creating a kind with a message", func() {
			err := errs.Newf("engine.create", errKindB, "player %s missing", "p1")

			So(errors.Is(err, errKindB), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "engine.create: kind b: player p1 missing")
		})

		Convey("When wrapping nil", func() {
			So(errs.WrapKind("op", errKindA, nil), ShouldBeNil)
			So(errs.Wrap("op", nil), ShouldBeNil)
		})

		Convey("When no candidate kind matches", func() {
			So(errs.KindOf(errs.NewKind("op", errKindA), errKindB), ShouldBeNil)
		})
	})
}
