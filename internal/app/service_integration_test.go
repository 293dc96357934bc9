package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/adapters/repository"
	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/challenge"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

func TestServiceIntegration(t *testing.T) {
	drivers := []struct{ name, location string }{
		{repository.DriverMemory, ""},
		{repository.DriverSQLite, ":memory:"},
		{repository.DriverSQLite, "file"},
	}

	for _, d := range drivers {
		Convey("Given a seeded service on the "+d.name+" store at "+d.location, t, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			location := d.location
			if location == "file" {
				location = filepath.Join(t.TempDir(), "ladder.db")
			}
			svc := service.New(
				service.WithLogger(logger.Discard()),
				service.WithStoreDriver(d.name, location),
				service.WithSeedDemoData(true),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			ana := playerByEmail(ctx, svc, "ana@ladder.local")
			bruno := playerByEmail(ctx, svc, "bruno@ladder.local")
			carla := playerByEmail(ctx, svc, "carla@ladder.local")
			engine := svc.Challenges()

			Convey("When a challenge goes from request to result", func() {
				when := time.Now().Add(48 * time.Hour).UTC()
				c, err := engine.Create(ctx, challenge.CreateInput{
					Players:           []string{ana, bruno},
					Solicitator:       ana,
					DateHourChallenge: &when,
				})
				So(err, ShouldBeNil)
				So(c.Status, ShouldEqual, model.StatusPending)
				So(c.Category, ShouldEqual, "A")

				So(engine.Update(ctx, c.ID, challenge.UpdateInput{
					Status:            model.StatusAccepted,
					DateHourChallenge: &when,
				}), ShouldBeNil)

				m, err := engine.AssignMatch(ctx, c.ID, challenge.AssignMatchInput{
					Def:    bruno,
					Result: []model.Result{{Set: "6-4"}, {Set: "7-5"}},
				})
				So(err, ShouldBeNil)

				Convey("Then the listing shows the resolved challenge", func() {
					details, err := engine.List(ctx, ana)
					So(err, ShouldBeNil)
					So(len(details), ShouldEqual, 1)

					got := details[0]
					So(got.Status, ShouldEqual, model.StatusDone)
					So(got.Match, ShouldEqual, m.ID)
					So(got.DateHourResponse, ShouldNotBeNil)
					So(got.SolicitatorPlayer.Email, ShouldEqual, "ana@ladder.local")
					So(got.MatchRecord, ShouldNotBeNil)
					So(got.MatchRecord.Def, ShouldEqual, bruno)
					So(got.MatchRecord.Category, ShouldEqual, "A")
				})

				Convey("Then the other players see nothing", func() {
					details, err := engine.List(ctx, carla)
					So(err, ShouldBeNil)
					So(details, ShouldBeEmpty)
				})

				Convey("Then stats count the finished challenge", func() {
					stats := svc.GetStats()
					So(stats["challengesByStatus"].(map[string]int)["DONE"], ShouldEqual, 1)
				})
			})

			Convey("When the winner is not part of the challenge", func() {
				c, err := engine.Create(ctx, challenge.CreateInput{Players: []string{ana, bruno}, Solicitator: ana})
				So(err, ShouldBeNil)

				_, err = engine.AssignMatch(ctx, c.ID, challenge.AssignMatchInput{
					Def:    carla,
					Result: []model.Result{{Set: "6-0"}},
				})

				Convey("Then nothing is written", func() {
					So(errors.Is(err, model.ErrInvalidState), ShouldBeTrue)
					counts, err := svc.Store().Counts(ctx)
					So(err, ShouldBeNil)
					So(counts.Matches, ShouldEqual, 0)

					stored, err := svc.Store().GetChallenge(ctx, c.ID)
					So(err, ShouldBeNil)
					So(stored.Status, ShouldEqual, model.StatusPending)
				})
			})

			Convey("When a stranger is named as a player", func() {
				_, err := engine.Create(ctx, challenge.CreateInput{
					Players:     []string{ana, "no-such-player"},
					Solicitator: ana,
				})

				Convey("Then the challenge is rejected as an invalid reference", func() {
					So(errors.Is(err, model.ErrInvalidReference), ShouldBeTrue)
				})
			})

			Convey("When both participants record the result at once", func() {
				c, err := engine.Create(ctx, challenge.CreateInput{Players: []string{ana, bruno}, Solicitator: ana})
				So(err, ShouldBeNil)

				var (
					wg        sync.WaitGroup
					mu        sync.Mutex
					successes int
					conflicts int
				)
				racers := []string{ana, bruno, ana, bruno, ana, bruno, ana, bruno}
				for _, def := range racers {
					wg.Add(1)
					go func(def string) {
						defer wg.Done()
						_, err := engine.AssignMatch(ctx, c.ID, challenge.AssignMatchInput{
							Def:    def,
							Result: []model.Result{{Set: "6-3"}},
						})
						mu.Lock()
						defer mu.Unlock()
						switch {
						case err == nil:
							successes++
						case errors.Is(err, model.ErrConflict):
							conflicts++
						}
					}(def)
				}
				wg.Wait()

				Convey("Then one writer wins and losing writers leave no match behind", func() {
					So(successes, ShouldEqual, 1)
					So(conflicts, ShouldEqual, len(racers)-1)

					counts, err := svc.Store().Counts(ctx)
					So(err, ShouldBeNil)
					So(counts.Matches, ShouldEqual, 1)
					So(counts.Orphans, ShouldEqual, 0)

					stored, err := svc.Store().GetChallenge(ctx, c.ID)
					So(err, ShouldBeNil)
					So(stored.Status, ShouldEqual, model.StatusDone)
					_, err = svc.Store().GetMatch(ctx, stored.Match)
					So(err, ShouldBeNil)
				})
			})

			Convey("When a challenge is cancelled", func() {
				c, err := engine.Create(ctx, challenge.CreateInput{Players: []string{ana, bruno}, Solicitator: bruno})
				So(err, ShouldBeNil)
				So(engine.Cancel(ctx, c.ID), ShouldBeNil)

				Convey("Then it is kept with status CANCELED", func() {
					stored, err := svc.Store().GetChallenge(ctx, c.ID)
					So(err, ShouldBeNil)
					So(stored.Status, ShouldEqual, model.StatusCanceled)
				})
			})
		})
	}
}

func playerByEmail(ctx context.Context, svc *service.Service, email string) string {
	players, err := svc.Players().ListPlayers(ctx)
	So(err, ShouldBeNil)
	for _, p := range players {
		if p.Email == email {
			return p.ID
		}
	}
	So(email, ShouldBeEmpty)
	return ""
}
