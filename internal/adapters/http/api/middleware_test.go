package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/metrics"
)

// headerCounter records every WriteHeader call, including superfluous ones.
type headerCounter struct {
	*httptest.ResponseRecorder
	calls []int
}

func (h *headerCounter) WriteHeader(code int) {
	h.calls = append(h.calls, code)
	h.ResponseRecorder.WriteHeader(code)
}

func TestErrorClass(t *testing.T) {
	convey.Convey("Given response statuses", t, func() {
		cases := map[int]string{
			http.StatusBadRequest:          "client_error",
			http.StatusNotFound:            "not_found",
			http.StatusConflict:            "conflict",
			http.StatusInternalServerError: "server_error",
			http.StatusServiceUnavailable:  "unavailable",
			http.StatusOK:                  "none",
		}
		for status, want := range cases {
			convey.So(errorClass(status), convey.ShouldEqual, want)
		}
		convey.So(severity(http.StatusServiceUnavailable), convey.ShouldEqual, "high")
		convey.So(severity(http.StatusConflict), convey.ShouldEqual, "medium")
	})
}

func TestMetricsMiddleware(t *testing.T) {
	convey.Convey("Given a wrapped handler", t, func() {
		conflict := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusConflict, "conflict", nil)
		}, "mw_test_conflict")
		silent := MetricsMiddleware(func(http.ResponseWriter, *http.Request) {}, "mw_test_silent")

		convey.Convey("When a request fails with 409", func() {
			w := httptest.NewRecorder()
			conflict(w, httptest.NewRequest(http.MethodPost, "/", nil))

			convey.Convey("Then the status passes through and the request is counted", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusConflict)
				out, err := testutil.GatherAndCount(metrics.GetRegistry(), "ladder_errors_by_endpoint_total")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the handler writes nothing", func() {
			w := httptest.NewRecorder()
			silent(w, httptest.NewRequest(http.MethodGet, "/", nil))

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRequestDeadline(t *testing.T) {
	convey.Convey("Given a handler that waits on a slow store", t, func() {
		var sawDeadline bool
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawDeadline = r.Context().Deadline()
			<-r.Context().Done()
			writeFailure(w, errs.WrapKind("challenge.list", model.ErrTransient, r.Context().Err()))
		})

		convey.Convey("When the deadline expires", func() {
			w := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
			RequestDeadline(10*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			convey.Convey("Then the handler's 503 is the only status written", func() {
				convey.So(sawDeadline, convey.ShouldBeTrue)
				convey.So(w.calls, convey.ShouldResemble, []int{http.StatusServiceUnavailable})
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"code":"unavailable"`)
			})
		})

		convey.Convey("When no deadline is configured", func() {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, sawDeadline = r.Context().Deadline()
				w.WriteHeader(http.StatusNoContent)
			})
			w := httptest.NewRecorder()
			RequestDeadline(0)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			convey.So(sawDeadline, convey.ShouldBeFalse)
			convey.So(w.Code, convey.ShouldEqual, http.StatusNoContent)
		})
	})
}
