// Package repository persists players, categories, challenges, matches and
// orphaned matches. Stores return errors carrying the model error kinds.
package repository

import (
	"context"

	"github.com/okian/ladder/internal/domain/model"
)

// Counts is a snapshot of stored record counts.
type Counts struct {
	Players    int `json:"players"`
	Categories int `json:"categories"`
	Challenges int `json:"challenges"`
	Matches    int `json:"matches"`
	Orphans    int `json:"orphanMatches"`
}

// Store is the full persistence surface used by the service.
type Store interface {
	// Players. Emails are unique case-insensitively; a duplicate yields model.ErrConflict.
	InsertPlayer(ctx context.Context, p model.Player) (model.Player, error)
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	FindPlayerByEmail(ctx context.Context, email string) (model.Player, error)
	ListPlayers(ctx context.Context) ([]model.Player, error)
	ReplacePlayer(ctx context.Context, p model.Player) (model.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	// Categories are keyed by name.
	InsertCategory(ctx context.Context, c model.Category) (model.Category, error)
	GetCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ReplaceCategory(ctx context.Context, c model.Category) (model.Category, error)
	FindCategoryByPlayer(ctx context.Context, playerID string) (model.Category, error)

	// Challenges. ReplaceChallenge is conditional on c.Version and bumps it;
	// a stale version yields model.ErrConflict.
	InsertChallenge(ctx context.Context, c model.Challenge) (model.Challenge, error)
	GetChallenge(ctx context.Context, id string) (model.Challenge, error)
	FindChallenges(ctx context.Context, filter model.ChallengeFilter) ([]model.Challenge, error)
	ReplaceChallenge(ctx context.Context, c model.Challenge) (model.Challenge, error)

	// Matches. Deleting an absent match is not an error.
	InsertMatch(ctx context.Context, m model.Match) (model.Match, error)
	GetMatch(ctx context.Context, id string) (model.Match, error)
	DeleteMatch(ctx context.Context, id string) error

	OrphanStore

	// Counts returns the number of stored records per kind.
	Counts(ctx context.Context) (Counts, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend and stops background work.
	Close() error
}

// OrphanStore keeps matches whose compensating delete failed, for
// reconciliation. Recording the same match twice keeps the first entry.
type OrphanStore interface {
	RecordOrphanMatch(ctx context.Context, o model.OrphanMatch) error
	ListOrphanMatches(ctx context.Context) ([]model.OrphanMatch, error)
}
