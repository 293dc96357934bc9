// Package service wires the store, roster and challenge engine into the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/challenge"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/roster"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// Service owns the store and the domain services built on top of it.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	players    *roster.Players
	categories *roster.Categories
	engine     *challenge.Engine

	// Configuration
	driver       string
	location     string
	storeOpts    []repository.Option
	seedDemoData bool
	now          func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreDriver selects the persistence backend opened by Start.
// location is the sqlite path or postgres DSN.
func WithStoreDriver(driver, location string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
			s.location = location
		}
	}
}

// WithStoreOptions passes options to the store opened by Start.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithStore uses an already opened store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSeedDemoData loads a small roster on Start.
func WithSeedDemoData(seed bool) Option {
	return func(s *Service) {
		s.seedDemoData = seed
	}
}

// WithClock replaces time.Now in the challenge engine.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver: repository.DriverMemory,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and builds the domain services.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ladder service...", logger.String("driver", s.driver))

	if s.store == nil {
		opts := append([]repository.Option{repository.WithLogger(s.logger.Named("repository"))}, s.storeOpts...)
		store, err := repository.Open(ctx, s.driver, s.location, opts...)
		if err != nil {
			return errs.Wrap("service.start", err)
		}
		s.store = store
	}

	s.players = roster.NewPlayers(s.store, s.logger.Named("players"))
	s.categories = roster.NewCategories(s.store, s.players, s.logger.Named("categories"))
	s.engine = challenge.NewEngine(s.players, s.categories, s.store, s.store,
		challenge.WithLogger(s.logger.Named("challenges")),
		challenge.WithClock(s.now),
		challenge.WithOrphanLog(s.store),
	)

	if s.seedDemoData {
		if err := seed(ctx, s.players, s.categories); err != nil {
			_ = s.store.Close()
			s.store = nil
			return errs.Wrap("service.seed", err)
		}
		s.logger.Info(ctx, "demo data loaded")
	}

	s.started = true
	s.logger.Info(ctx, "ladder service started")

	return nil
}

// Stop closes the store. A later Start opens a fresh one.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ladder service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "store close failed", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "ladder service stopped")
}

// Players returns the player directory. Nil before Start.
func (s *Service) Players() *roster.Players {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players
}

// Categories returns the category registry. Nil before Start.
func (s *Service) Categories() *roster.Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// Challenges returns the challenge engine. Nil before Start.
func (s *Service) Challenges() *challenge.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Store returns the backing store. Nil before Start unless set with WithStore.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
		"driver":  s.driver,
	}
	if !s.started {
		return stats
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if counts, err := s.store.Counts(ctx); err == nil {
		stats["records"] = counts
	} else {
		s.logger.Warn(ctx, "stats: counting records failed", logger.Error(err))
	}

	byStatus, err := s.engine.CountByStatus(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stats: counting challenges failed", logger.Error(err))
		return stats
	}
	out := make(map[string]int, len(byStatus))
	for _, st := range []model.ChallengeStatus{
		model.StatusPending, model.StatusAccepted, model.StatusDenied, model.StatusDone, model.StatusCanceled,
	} {
		out[string(st)] = byStatus[st]
		metrics.UpdateChallengesByStatus(string(st), byStatus[st])
	}
	stats["challengesByStatus"] = out

	return stats
}
