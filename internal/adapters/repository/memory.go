package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
)

const memoryStoreName = "memory"

// MemoryStore is an in-process Store. Records are copied on the way in and
// out so callers never share slices with the store.
type MemoryStore struct {
	mu sync.RWMutex

	players    map[string]model.Player
	categories map[string]model.Category
	challenges map[string]model.Challenge
	matches    map[string]model.Match
	orphans    map[string]model.OrphanMatch

	opts    options
	updater metricsUpdater
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore. Background metrics stop when
// ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players:    make(map[string]model.Player),
		categories: make(map[string]model.Category),
		challenges: make(map[string]model.Challenge),
		matches:    make(map[string]model.Match),
		orphans:    make(map[string]model.OrphanMatch),
		opts:       defaultOptions(),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.updater.start(ctx, s.opts.metricsUpdateInterval, s.opts.logger, s.Counts)
	return s
}

func (s *MemoryStore) now() time.Time { return s.opts.now().UTC() }

// Players.

func (s *MemoryStore) InsertPlayer(_ context.Context, p model.Player) (_ model.Player, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "insert_player", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(p.Email, "") {
		return model.Player{}, errs.Newf("memory.insert_player", model.ErrConflict, "email %s already registered", p.Email)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.players[p.ID]; ok {
		return model.Player{}, errs.Newf("memory.insert_player", model.ErrConflict, "player %s exists", p.ID)
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.players[p.ID] = p
	return p, nil
}

func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	for id, p := range s.players {
		if id != exceptID && strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetPlayer(_ context.Context, id string) (_ model.Player, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "get_player", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return model.Player{}, errs.Newf("memory.get_player", model.ErrNotFound, "player %s", id)
	}
	return p, nil
}

func (s *MemoryStore) FindPlayerByEmail(_ context.Context, email string) (_ model.Player, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "find_player_by_email", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return model.Player{}, errs.Newf("memory.find_player_by_email", model.ErrNotFound, "email %s", email)
}

func (s *MemoryStore) ListPlayers(_ context.Context) (_ []model.Player, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "list_players", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ReplacePlayer(_ context.Context, p model.Player) (_ model.Player, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "replace_player", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.players[p.ID]
	if !ok {
		return model.Player{}, errs.Newf("memory.replace_player", model.ErrNotFound, "player %s", p.ID)
	}
	if s.emailTaken(p.Email, p.ID) {
		return model.Player{}, errs.Newf("memory.replace_player", model.ErrConflict, "email %s already registered", p.Email)
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.now()
	s.players[p.ID] = p
	return p, nil
}

func (s *MemoryStore) DeletePlayer(_ context.Context, id string) (err error) {
	defer func(start time.Time) { observe(memoryStoreName, "delete_player", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return errs.Newf("memory.delete_player", model.ErrNotFound, "player %s", id)
	}
	delete(s.players, id)
	return nil
}

// Categories.

func (s *MemoryStore) InsertCategory(_ context.Context, c model.Category) (_ model.Category, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "insert_category", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.Name]; ok {
		return model.Category{}, errs.Newf("memory.insert_category", model.ErrConflict, "category %s exists", c.Name)
	}
	c = cloneCategory(c)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.categories[c.Name] = c
	return cloneCategory(c), nil
}

func (s *MemoryStore) GetCategory(_ context.Context, name string) (_ model.Category, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "get_category", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[name]
	if !ok {
		return model.Category{}, errs.Newf("memory.get_category", model.ErrNotFound, "category %s", name)
	}
	return cloneCategory(c), nil
}

func (s *MemoryStore) ListCategories(_ context.Context) (_ []model.Category, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "list_categories", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ReplaceCategory(_ context.Context, c model.Category) (_ model.Category, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "replace_category", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.categories[c.Name]
	if !ok {
		return model.Category{}, errs.Newf("memory.replace_category", model.ErrNotFound, "category %s", c.Name)
	}
	c = cloneCategory(c)
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = s.now()
	s.categories[c.Name] = c
	return cloneCategory(c), nil
}

func (s *MemoryStore) FindCategoryByPlayer(_ context.Context, playerID string) (_ model.Category, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "find_category_by_player", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.HasPlayer(playerID) {
			return cloneCategory(c), nil
		}
	}
	return model.Category{}, errs.Newf("memory.find_category_by_player", model.ErrNotFound, "no category for player %s", playerID)
}

// Challenges. Solicitator, category, players and request time are fixed at
// insert; ReplaceChallenge ignores changes to them.

func (s *MemoryStore) InsertChallenge(_ context.Context, c model.Challenge) (_ model.Challenge, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "insert_challenge", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	c = cloneChallenge(c)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Version = 1
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.challenges[c.ID] = c
	return cloneChallenge(c), nil
}

func (s *MemoryStore) GetChallenge(_ context.Context, id string) (_ model.Challenge, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "get_challenge", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.challenges[id]
	if !ok {
		return model.Challenge{}, errs.Newf("memory.get_challenge", model.ErrNotFound, "challenge %s", id)
	}
	return cloneChallenge(c), nil
}

func (s *MemoryStore) FindChallenges(_ context.Context, filter model.ChallengeFilter) (_ []model.Challenge, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "find_challenges", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Challenge, 0)
	for _, c := range s.challenges {
		if filter.Matches(c) {
			out = append(out, cloneChallenge(c))
		}
	}
	sortChallenges(out)
	return out, nil
}

func (s *MemoryStore) ReplaceChallenge(_ context.Context, c model.Challenge) (_ model.Challenge, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "replace_challenge", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.challenges[c.ID]
	if !ok {
		return model.Challenge{}, errs.Newf("memory.replace_challenge", model.ErrNotFound, "challenge %s", c.ID)
	}
	if cur.Version != c.Version {
		return model.Challenge{}, errs.Newf("memory.replace_challenge", model.ErrConflict,
			"challenge %s is at version %d, not %d", c.ID, cur.Version, c.Version)
	}
	c = cloneChallenge(c)
	c.Solicitator = cur.Solicitator
	c.Category = cur.Category
	c.Players = cur.Players
	c.DateHourRequest = cur.DateHourRequest
	c.Version = cur.Version + 1
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = s.now()
	s.challenges[c.ID] = c
	return cloneChallenge(c), nil
}

// Matches.

func (s *MemoryStore) InsertMatch(_ context.Context, m model.Match) (_ model.Match, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "insert_match", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	m = cloneMatch(m)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.now()
	s.matches[m.ID] = m
	return cloneMatch(m), nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (_ model.Match, err error) {
	defer func(start time.Time) { observe(memoryStoreName, "get_match", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, errs.Newf("memory.get_match", model.ErrNotFound, "match %s", id)
	}
	return cloneMatch(m), nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) (err error) {
	defer func(start time.Time) { observe(memoryStoreName, "delete_match", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.matches, id)
	return nil
}

// Orphans.

func (s *MemoryStore) RecordOrphanMatch(_ context.Context, o model.OrphanMatch) (err error) {
	defer func(start time.Time) { observe(memoryStoreName, "record_orphan_match", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orphans[o.MatchID]; !ok {
		s.orphans[o.MatchID] = o
	}
	return nil
}

func (s *MemoryStore) ListOrphanMatches(_ context.Context) ([]model.OrphanMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.OrphanMatch, 0, len(s.orphans))
	for _, o := range s.orphans {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

// Housekeeping.

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Counts{
		Players:    len(s.players),
		Categories: len(s.categories),
		Challenges: len(s.challenges),
		Matches:    len(s.matches),
		Orphans:    len(s.orphans),
	}, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close stops the metrics updater. Data stays readable.
func (s *MemoryStore) Close() error {
	s.updater.stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func sortChallenges(cs []model.Challenge) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].DateHourRequest.Equal(cs[j].DateHourRequest) {
			return cs[i].DateHourRequest.Before(cs[j].DateHourRequest)
		}
		return cs[i].ID < cs[j].ID
	})
}

func cloneCategory(c model.Category) model.Category {
	c.Events = append([]model.Event(nil), c.Events...)
	c.Players = append([]string{}, c.Players...)
	return c
}

func cloneChallenge(c model.Challenge) model.Challenge {
	c.Players = append([]string(nil), c.Players...)
	if c.DateHourChallenge != nil {
		t := *c.DateHourChallenge
		c.DateHourChallenge = &t
	}
	if c.DateHourResponse != nil {
		t := *c.DateHourResponse
		c.DateHourResponse = &t
	}
	return c
}

func cloneMatch(m model.Match) model.Match {
	m.Players = append([]string(nil), m.Players...)
	m.Result = append([]model.Result(nil), m.Result...)
	return m
}
