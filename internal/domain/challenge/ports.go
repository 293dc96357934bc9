// Package challenge implements the challenge lifecycle: creation with
// cross-entity validation, status updates, cancellation, and resolution into
// a match with a compensated two-step write.
package challenge

import (
	"context"

	"github.com/okian/ladder/internal/domain/model"
)

// PlayerDirectory resolves players. GetPlayer returns model.ErrNotFound for
// unknown ids.
type PlayerDirectory interface {
	ListPlayers(ctx context.Context) ([]model.Player, error)
	GetPlayer(ctx context.Context, id string) (model.Player, error)
}

// CategoryRegistry resolves the category a player currently belongs to.
// It returns model.ErrNotFound when the player has none.
type CategoryRegistry interface {
	CategoryOfPlayer(ctx context.Context, playerID string) (model.Category, error)
}

// ChallengeStore persists challenges.
//
// ReplaceChallenge succeeds only when the stored version equals c.Version and
// bumps the stored version; otherwise it returns model.ErrConflict, or
// model.ErrNotFound when the record is gone.
type ChallengeStore interface {
	InsertChallenge(ctx context.Context, c model.Challenge) (model.Challenge, error)
	GetChallenge(ctx context.Context, id string) (model.Challenge, error)
	FindChallenges(ctx context.Context, filter model.ChallengeFilter) ([]model.Challenge, error)
	ReplaceChallenge(ctx context.Context, c model.Challenge) (model.Challenge, error)
}

// MatchStore persists matches.
type MatchStore interface {
	InsertMatch(ctx context.Context, m model.Match) (model.Match, error)
	GetMatch(ctx context.Context, id string) (model.Match, error)
	DeleteMatch(ctx context.Context, id string) error
}

// OrphanLog records matches whose compensating delete failed.
type OrphanLog interface {
	RecordOrphanMatch(ctx context.Context, o model.OrphanMatch) error
}
