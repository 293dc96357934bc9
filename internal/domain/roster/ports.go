// Package roster manages players and categories, and serves as the player
// directory and category registry for the challenge lifecycle.
package roster

import (
	"context"

	"github.com/okian/ladder/internal/domain/model"
)

// PlayerStore persists players. InsertPlayer returns model.ErrConflict when
// the email is taken; lookups return model.ErrNotFound.
type PlayerStore interface {
	InsertPlayer(ctx context.Context, p model.Player) (model.Player, error)
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	FindPlayerByEmail(ctx context.Context, email string) (model.Player, error)
	ListPlayers(ctx context.Context) ([]model.Player, error)
	ReplacePlayer(ctx context.Context, p model.Player) (model.Player, error)
	DeletePlayer(ctx context.Context, id string) error
}

// CategoryStore persists categories keyed by name. FindCategoryByPlayer
// returns model.ErrNotFound when no category lists the player.
type CategoryStore interface {
	InsertCategory(ctx context.Context, c model.Category) (model.Category, error)
	GetCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ReplaceCategory(ctx context.Context, c model.Category) (model.Category, error)
	FindCategoryByPlayer(ctx context.Context, playerID string) (model.Category, error)
}
