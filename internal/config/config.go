// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and LADDER_ env vars over the defaults.
package config

import (
	"fmt"
	"time"
)

// Store drivers understood by the repository adapter.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file for the sqlite driver. ":memory:" is allowed.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MigrationsDir overrides the embedded SQL migrations when set.
	MigrationsDir string `koanf:"migrations_dir"`

	// StoreTimeoutMS bounds each request's store work.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// MaxOpenConns caps the SQL connection pool.
	MaxOpenConns int `koanf:"max_open_conns"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// SeedDemoData loads a small roster at startup.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		StoreDriver:       DriverMemory,
		SQLitePath:        "ladder.db",
		StoreTimeoutMS:    5_000,
		MaxOpenConns:      10,
		ShutdownTimeoutMS: 30_000,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// StoreLocation returns the driver-specific location: a file path for sqlite,
// a DSN for postgres and nothing for memory.
func (c *Config) StoreLocation() string {
	switch c.StoreDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverPostgres:
		return c.PostgresDSN
	default:
		return ""
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty for the sqlite driver", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn must not be empty for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.StoreTimeoutMS <= 0 {
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("%w: max_open_conns must not be negative", ErrInvalidConfig)
	}
	return nil
}
