package roster

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/logger"
)

// CategoryInput creates a category.
type CategoryInput struct {
	Name        string
	Description string
	Events      []model.Event
}

// CategoryUpdate changes description and events. An empty description is kept.
type CategoryUpdate struct {
	Description string
	Events      []model.Event
}

// PlayerLookup is the part of the player directory categories need.
type PlayerLookup interface {
	GetPlayer(ctx context.Context, id string) (model.Player, error)
}

// Categories is the category registry. A player belongs to at most one
// category; membership changes are read-modify-write without a version
// guard, so concurrent assignments to the same category may race.
type Categories struct {
	store   CategoryStore
	players PlayerLookup
	logger  logger.Logger
}

// NewCategories builds the registry on top of store.
func NewCategories(store CategoryStore, players PlayerLookup, l logger.Logger) *Categories {
	if l == nil {
		l = logger.Discard()
	}
	return &Categories{store: store, players: players, logger: l}
}

// Create stores a new category; names are unique.
func (s *Categories) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	const op = "roster.create_category"
	c, err := s.create(ctx, op, in)
	observe(ctx, s.logger, "category", "create", err, logger.String("category", in.Name))
	return c, err
}

func (s *Categories) create(ctx context.Context, op string, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	_, err := s.store.GetCategory(ctx, name)
	switch {
	case err == nil:
		return model.Category{}, errs.Newf(op, model.ErrConflict, "category %s already exists", name)
	case !errors.Is(err, model.ErrNotFound):
		return model.Category{}, classify(op, err)
	}

	c, err := s.store.InsertCategory(ctx, model.Category{
		Name:        name,
		Description: in.Description,
		Events:      in.Events,
		Players:     []string{},
	})
	if err != nil {
		return model.Category{}, classify(op, err)
	}
	return c, nil
}

// List returns all categories.
func (s *Categories) List(ctx context.Context) ([]model.Category, error) {
	out, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, classify("roster.list_categories", err)
	}
	return out, nil
}

// Get returns the named category or an error of kind model.ErrNotFound.
func (s *Categories) Get(ctx context.Context, name string) (model.Category, error) {
	const op = "roster.get_category"
	c, err := s.store.GetCategory(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Category{}, errs.Newf(op, model.ErrNotFound, "category %s doesn't exist", name)
		}
		return model.Category{}, classify(op, err)
	}
	return c, nil
}

// Update replaces description (when given) and events of a category.
func (s *Categories) Update(ctx context.Context, name string, in CategoryUpdate) error {
	const op = "roster.update_category"
	c, err := s.Get(ctx, name)
	if err == nil {
		if in.Description != "" {
			c.Description = in.Description
		}
		if len(in.Events) > 0 {
			c.Events = in.Events
		}
		if _, err = s.store.ReplaceCategory(ctx, c); err != nil {
			err = classify(op, err)
		}
	}
	observe(ctx, s.logger, "category", "update", err, logger.String("category", name))
	return err
}

// AssignPlayer adds playerID to the category.
func (s *Categories) AssignPlayer(ctx context.Context, name, playerID string) error {
	const op = "roster.assign_player"
	err := s.assignPlayer(ctx, op, name, playerID)
	observe(ctx, s.logger, "category", "assign_player", err,
		logger.String("category", name), logger.String("player_id", playerID))
	return err
}

func (s *Categories) assignPlayer(ctx context.Context, op, name, playerID string) error {
	c, err := s.store.GetCategory(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errs.Newf(op, model.ErrInvalidReference, "category %s doesn't exist", name)
		}
		return classify(op, err)
	}
	if _, err := s.players.GetPlayer(ctx, playerID); err != nil {
		return classify(op, err)
	}

	current, err := s.store.FindCategoryByPlayer(ctx, playerID)
	switch {
	case err == nil && current.Name == c.Name:
		return errs.Newf(op, model.ErrInvalidState, "player %s already assigned to category %s", playerID, name)
	case err == nil:
		return errs.Newf(op, model.ErrInvalidState, "player %s already belongs to category %s", playerID, current.Name)
	case !errors.Is(err, model.ErrNotFound):
		return classify(op, err)
	}

	c.Players = append(c.Players, playerID)
	if _, err := s.store.ReplaceCategory(ctx, c); err != nil {
		return classify(op, err)
	}
	return nil
}

// CategoryOfPlayer returns the category playerID belongs to. Unknown players
// yield model.ErrInvalidReference; players without a category yield
// model.ErrNotFound.
func (s *Categories) CategoryOfPlayer(ctx context.Context, playerID string) (model.Category, error) {
	const op = "roster.category_of_player"
	if _, err := s.players.GetPlayer(ctx, playerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Category{}, errs.Newf(op, model.ErrInvalidReference, "the id %s is not a player", playerID)
		}
		return model.Category{}, classify(op, err)
	}
	c, err := s.store.FindCategoryByPlayer(ctx, playerID)
	if err != nil {
		return model.Category{}, classify(op, err)
	}
	return c, nil
}
