package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/ladder/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.MaxOpenConns, convey.ShouldEqual, 10)
			convey.So(cfg.SeedDemoData, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the memory driver has no location", func() {
			convey.So(cfg.StoreLocation(), convey.ShouldEqual, "")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := map[string]func(*config.Config){
			"addr must not be empty":  func(c *config.Config) { c.Addr = "" },
			"unknown store_driver":    func(c *config.Config) { c.StoreDriver = "mongo" },
			"sqlite_path":             func(c *config.Config) { c.StoreDriver = config.DriverSQLite; c.SQLitePath = "" },
			"postgres_dsn":            func(c *config.Config) { c.StoreDriver = config.DriverPostgres },
			"store_timeout_ms":        func(c *config.Config) { c.StoreTimeoutMS = 0 },
			"shutdown_timeout_ms":     func(c *config.Config) { c.ShutdownTimeoutMS = -1 },
			"max_open_conns must not": func(c *config.Config) { c.MaxOpenConns = -3 },
		}

		for want, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, want)
		}
	})

	convey.Convey("Given SQL drivers with locations", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.DriverSQLite
		cfg.SQLitePath = ":memory:"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.StoreLocation(), convey.ShouldEqual, ":memory:")

		cfg.StoreDriver = config.DriverPostgres
		cfg.PostgresDSN = "postgres://ladder@localhost/ladder"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.StoreLocation(), convey.ShouldEqual, "postgres://ladder@localhost/ladder")
	})
}
