package roster

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/logger"
)

// PlayerInput registers a player.
type PlayerInput struct {
	Name        string
	Email       string
	PhoneNumber string
}

// PlayerUpdate changes the mutable fields of a player. Empty fields are left as is.
type PlayerUpdate struct {
	Name        string
	PhoneNumber string
}

// Players is the player directory.
type Players struct {
	store  PlayerStore
	logger logger.Logger
}

// NewPlayers builds the player directory on top of store.
func NewPlayers(store PlayerStore, l logger.Logger) *Players {
	if l == nil {
		l = logger.Discard()
	}
	return &Players{store: store, logger: l}
}

// Create registers a player; emails are unique case-insensitively.
func (s *Players) Create(ctx context.Context, in PlayerInput) (model.Player, error) {
	const op = "roster.create_player"
	p, err := s.create(ctx, op, in)
	observe(ctx, s.logger, "player", "create", err, logger.String("player_id", p.ID))
	return p, err
}

func (s *Players) create(ctx context.Context, op string, in PlayerInput) (model.Player, error) {
	email := strings.TrimSpace(in.Email)
	_, err := s.store.FindPlayerByEmail(ctx, email)
	switch {
	case err == nil:
		return model.Player{}, errs.Newf(op, model.ErrConflict, "the player with %s is already registered", email)
	case !errors.Is(err, model.ErrNotFound):
		return model.Player{}, classify(op, err)
	}

	p, err := s.store.InsertPlayer(ctx, model.Player{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		return model.Player{}, classify(op, err)
	}
	return p, nil
}

// Update applies the non-empty fields of in to the player.
func (s *Players) Update(ctx context.Context, id string, in PlayerUpdate) error {
	const op = "roster.update_player"
	p, err := s.Get(ctx, id)
	if err == nil {
		if in.Name != "" {
			p.Name = strings.TrimSpace(in.Name)
		}
		if in.PhoneNumber != "" {
			p.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		}
		if _, err = s.store.ReplacePlayer(ctx, p); err != nil {
			err = classify(op, err)
		}
	}
	observe(ctx, s.logger, "player", "update", err, logger.String("player_id", id))
	return err
}

// ListPlayers returns every registered player.
func (s *Players) ListPlayers(ctx context.Context) ([]model.Player, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, classify("roster.list_players", err)
	}
	return players, nil
}

// GetPlayer returns the player or an error of kind model.ErrNotFound.
func (s *Players) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	const op = "roster.get_player"
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Player{}, errs.Newf(op, model.ErrNotFound, "the player with %s was not found", id)
		}
		return model.Player{}, classify(op, err)
	}
	return p, nil
}

// Get is GetPlayer.
func (s *Players) Get(ctx context.Context, id string) (model.Player, error) {
	return s.GetPlayer(ctx, id)
}

// Delete removes a player.
func (s *Players) Delete(ctx context.Context, id string) error {
	const op = "roster.delete_player"
	_, err := s.Get(ctx, id)
	if err == nil {
		if err = s.store.DeletePlayer(ctx, id); err != nil {
			err = classify(op, err)
		}
	}
	observe(ctx, s.logger, "player", "delete", err, logger.String("player_id", id))
	return err
}
