package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// observe records latency for a store call and counts infrastructure errors.
// Missing records and version conflicts are outcomes, not store errors.
func observe(store, operation string, start time.Time, err error) {
	metrics.RecordRepositoryLatency(store, operation, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrConflict) {
		metrics.RecordRepositoryError(store, operation)
	}
}

// metricsUpdater periodically publishes record counts until stopped.
type metricsUpdater struct {
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (u *metricsUpdater) start(ctx context.Context, interval time.Duration, l logger.Logger, counts func(context.Context) (Counts, error)) {
	u.stopChan = make(chan struct{})
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-u.stopChan:
				return
			case <-ticker.C:
				publishCounts(ctx, l, counts)
			}
		}
	}()
}

func (u *metricsUpdater) stop() {
	u.stopOnce.Do(func() {
		if u.stopChan != nil {
			close(u.stopChan)
		}
	})
	u.wg.Wait()
}

func publishCounts(ctx context.Context, l logger.Logger, counts func(context.Context) (Counts, error)) {
	c, err := counts(ctx)
	if err != nil {
		l.Warn(ctx, "record count refresh failed", logger.Error(err))
		return
	}
	metrics.UpdateRepositoryRecords("players", c.Players)
	metrics.UpdateRepositoryRecords("categories", c.Categories)
	metrics.UpdateRepositoryRecords("challenges", c.Challenges)
	metrics.UpdateRepositoryRecords("matches", c.Matches)
	metrics.UpdateRepositoryRecords("orphan_matches", c.Orphans)
}
