package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/config"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("LADDER_ADDR", ":8181")
			_ = os.Setenv("LADDER_STORE_DRIVER", "sqlite")
			_ = os.Setenv("LADDER_SQLITE_PATH", ":memory:")
			defer func() {
				_ = os.Unsetenv("LADDER_ADDR")
				_ = os.Unsetenv("LADDER_STORE_DRIVER")
				_ = os.Unsetenv("LADDER_SQLITE_PATH")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.StoreLocation(), convey.ShouldEqual, ":memory:")
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("LADDER_STORE_DRIVER", "mongo")
			defer func() { _ = os.Unsetenv("LADDER_STORE_DRIVER") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given a started service built from defaults", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.SeedDemoData = true
		svc := newService(cfg, logger.Discard())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newRouter(svc, cfg.StoreTimeout()))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("Then the health check reports the store", func() {
			resp := get("/healthz")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the seeded roster is served", func() {
			resp := get("/api/v1/players")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var players []map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&players), convey.ShouldBeNil)
			convey.So(len(players), convey.ShouldEqual, 4)
		})

		convey.Convey("Then docs and landing page are mounted", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/"} {
				resp := get(path)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then metrics are exposed", func() {
			_ = svc.GetStats()
			resp := get("/metrics")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			body, err := io.ReadAll(resp.Body)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(body), convey.ShouldContainSubstring, "ladder_challenges")
		})

		convey.Convey("Then stats are served through the router", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			newRouter(svc, cfg.StoreTimeout()).ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater before start", func() {
			svc := newService(config.New(), logger.Discard())

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then a manager with its own registry should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}
