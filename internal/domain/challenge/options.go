package challenge

import (
	"time"

	"github.com/okian/ladder/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithOrphanLog sets where failed compensations are recorded.
func WithOrphanLog(o OrphanLog) Option {
	return func(e *Engine) {
		if o != nil {
			e.orphans = o
		}
	}
}
