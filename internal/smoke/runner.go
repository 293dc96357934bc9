// Package smoke drives a running ladder service through its HTTP API and
// checks the challenge lifecycle end to end.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/ladder/pkg/logger"
)

// Run executes the complete smoke test and returns the collected statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	l := config.Logger
	if l == nil {
		l = logger.Get()
	}
	l = l.Named("smoke")
	stats := &Stats{StartTime: time.Now()}

	racers := config.Racers
	if racers < 2 {
		racers = 2
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := newClient(config.BaseURL, timeout)

	l.Info(ctx, "starting ladder smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("racers", racers),
		logger.Duration("timeout", timeout),
	)

	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		stats.Requests = int(c.requests.Load())
		displayFinalStats(l, stats)
	}()

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, c, l); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register a roster of our own
	f, err := setupRoster(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("roster setup failed: %w", err)
	}
	if config.Verbose {
		l.Info(ctx, "roster ready",
			logger.String("category", f.category),
			logger.String("home", f.players[0].ID),
			logger.String("away", f.players[1].ID),
		)
	}

	// Step 3: Request, accept and resolve one challenge
	if err := runScenario(ctx, c, f, l); err != nil {
		return stats, fmt.Errorf("challenge scenario failed: %w", err)
	}
	stats.ScenarioPassed = true

	// Step 4: Race concurrent results for one challenge
	if err := runRace(ctx, c, f, racers, stats, l); err != nil {
		return stats, fmt.Errorf("assign-match race failed: %w", err)
	}
	stats.RacePassed = true

	l.Info(ctx, "smoke test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service and its store are up.
func checkServiceHealth(ctx context.Context, c *client, l logger.Logger) error {
	l.Info(ctx, "checking service health")
	var health struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &health, http.StatusOK); err != nil {
		return err
	}
	l.Info(ctx, "service is healthy", logger.String("status", health.Status))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(l logger.Logger, stats *Stats) {
	l.Info(context.Background(), "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Bool("scenarioPassed", stats.ScenarioPassed),
		logger.Bool("racePassed", stats.RacePassed),
		logger.Int("raceWinners", stats.RaceWinners),
		logger.Int("raceConflicts", stats.RaceConflicts),
		logger.Int("raceFailures", stats.RaceFailures),
		logger.Int("orphansSeen", stats.OrphansSeen),
		logger.Duration("duration", stats.Duration),
	)
}
