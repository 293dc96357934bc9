package repository

import (
	"io/fs"
	"os"
	"time"

	"github.com/okian/ladder/pkg/logger"
)

type options struct {
	metricsUpdateInterval time.Duration
	logger                logger.Logger
	migrations            fs.FS
	maxOpenConns          int
	now                   func() time.Time
}

func defaultOptions() options {
	return options{
		metricsUpdateInterval: 5 * time.Second,
		logger:                logger.Discard(),
		maxOpenConns:          10,
		now:                   time.Now,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithMetricsUpdateInterval sets the interval for background record-count metrics.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMigrationsDir reads migrations from dir instead of the bundled set.
func WithMigrationsDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.migrations = os.DirFS(dir)
		}
	}
}

// WithMaxOpenConns caps the SQL connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
