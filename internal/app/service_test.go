package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/ladder/internal/adapters/repository"
	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))

		Convey("Then nothing is wired before Start", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Players(), ShouldBeNil)
			So(svc.Challenges(), ShouldBeNil)
			So(svc.Store(), ShouldBeNil)
		})

		Convey("Then stats report a stopped memory service", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["driver"], ShouldEqual, repository.DriverMemory)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then every component is wired", func() {
				So(err, ShouldBeNil)
				So(svc.Players(), ShouldNotBeNil)
				So(svc.Categories(), ShouldNotBeNil)
				So(svc.Challenges(), ShouldNotBeNil)
				So(svc.Store().Ping(ctx), ShouldBeNil)
			})

			Convey("And starting again is a no-op", func() {
				store := svc.Store()
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Store(), ShouldEqual, store)
			})

			Convey("And stats count every status", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				byStatus, ok := stats["challengesByStatus"].(map[string]int)
				So(ok, ShouldBeTrue)
				So(byStatus, ShouldContainKey, "PENDING")
				So(byStatus, ShouldContainKey, "DONE")
				So(stats["records"], ShouldResemble, repository.Counts{})
			})
		})
	})

	Convey("Given an unknown store driver", t, func() {
		svc := service.New(
			service.WithLogger(logger.Discard()),
			service.WithStoreDriver("mongo", "mongodb://localhost"),
		)

		err := svc.Start(context.Background())

		Convey("Then Start fails with the repository error", func() {
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		store := svc.Store()

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then the store is closed and released", func() {
				So(errors.Is(store.Ping(ctx), repository.ErrClosed), ShouldBeTrue)
				So(svc.Store(), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And stopping twice is safe", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_SeedDemoData(t *testing.T) {
	Convey("Given a store shared by two service runs", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := repository.NewSQLiteStore(ctx, ":memory:")
		So(err, ShouldBeNil)

		first := service.New(
			service.WithLogger(logger.Discard()),
			service.WithStore(store),
			service.WithSeedDemoData(true),
		)
		So(first.Start(ctx), ShouldBeNil)

		Convey("Then the demo roster is loaded", func() {
			players, err := first.Players().ListPlayers(ctx)
			So(err, ShouldBeNil)
			So(len(players), ShouldEqual, 4)

			cats, err := first.Categories().List(ctx)
			So(err, ShouldBeNil)
			So(len(cats), ShouldEqual, 2)
			for _, c := range cats {
				So(len(c.Players), ShouldEqual, 2)
			}
		})

		Convey("When seeding the same store again", func() {
			second := service.New(
				service.WithLogger(logger.Discard()),
				service.WithStore(store),
				service.WithSeedDemoData(true),
			)
			err := second.Start(ctx)

			Convey("Then existing records are reused", func() {
				So(err, ShouldBeNil)
				players, err := second.Players().ListPlayers(ctx)
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 4)
			})
		})

		first.Stop()
	})
}
