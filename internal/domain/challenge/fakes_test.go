package challenge_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
)

// world is an in-memory backing for every engine collaborator with hooks for
// injecting failures between the engine's read and write steps.
type world struct {
	mu sync.Mutex

	players    map[string]model.Player
	categories map[string]string // player id -> category name
	challenges map[string]model.Challenge
	matches    map[string]model.Match
	orphans    []model.OrphanMatch
	seq        int

	challengeWrites int
	matchWrites     int

	listErr       error
	replaceErr    error
	deleteErr     error
	beforeReplace func(w *world, c model.Challenge)
}

func newWorld() *world {
	return &world{
		players:    map[string]model.Player{},
		categories: map[string]string{},
		challenges: map[string]model.Challenge{},
		matches:    map[string]model.Match{},
	}
}

func (w *world) addPlayer(id, category string) {
	w.players[id] = model.Player{ID: id, Name: "player " + id, Email: id + "@ladder.test"}
	if category != "" {
		w.categories[id] = category
	}
}

func (w *world) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func (w *world) ListPlayers(context.Context) ([]model.Player, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listErr != nil {
		return nil, w.listErr
	}
	out := make([]model.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	return out, nil
}

func (w *world) GetPlayer(_ context.Context, id string) (model.Player, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[id]
	if !ok {
		return model.Player{}, errs.NewKind("fake.get_player", model.ErrNotFound)
	}
	return p, nil
}

func (w *world) CategoryOfPlayer(_ context.Context, id string) (model.Category, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	name, ok := w.categories[id]
	if !ok {
		return model.Category{}, errs.NewKind("fake.category_of_player", model.ErrNotFound)
	}
	return model.Category{Name: name, Players: []string{id}}, nil
}

func (w *world) InsertChallenge(_ context.Context, c model.Challenge) (model.Challenge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c.ID = w.nextID("challenge")
	c.Version = 1
	w.challenges[c.ID] = c
	w.challengeWrites++
	return c, nil
}

func (w *world) GetChallenge(_ context.Context, id string) (model.Challenge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.challenges[id]
	if !ok {
		return model.Challenge{}, errs.NewKind("fake.get_challenge", model.ErrNotFound)
	}
	return c, nil
}

func (w *world) FindChallenges(_ context.Context, f model.ChallengeFilter) ([]model.Challenge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := []model.Challenge{}
	for _, c := range w.challenges {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (w *world) ReplaceChallenge(_ context.Context, c model.Challenge) (model.Challenge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.beforeReplace != nil {
		w.beforeReplace(w, c)
	}
	if w.replaceErr != nil {
		return model.Challenge{}, w.replaceErr
	}
	cur, ok := w.challenges[c.ID]
	if !ok {
		return model.Challenge{}, errs.NewKind("fake.replace_challenge", model.ErrNotFound)
	}
	if cur.Version != c.Version {
		return model.Challenge{}, errs.NewKind("fake.replace_challenge", model.ErrConflict)
	}
	c.Version++
	w.challenges[c.ID] = c
	w.challengeWrites++
	return c, nil
}

func (w *world) InsertMatch(_ context.Context, m model.Match) (model.Match, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m.ID = w.nextID("match")
	w.matches[m.ID] = m
	w.matchWrites++
	return m, nil
}

func (w *world) GetMatch(_ context.Context, id string) (model.Match, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.matches[id]
	if !ok {
		return model.Match{}, errs.NewKind("fake.get_match", model.ErrNotFound)
	}
	return m, nil
}

func (w *world) DeleteMatch(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.deleteErr != nil {
		return w.deleteErr
	}
	delete(w.matches, id)
	return nil
}

func (w *world) RecordOrphanMatch(_ context.Context, o model.OrphanMatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.orphans = append(w.orphans, o)
	return nil
}

var errStoreDown = errors.New("connection reset by peer")
