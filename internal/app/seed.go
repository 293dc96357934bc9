package service

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/roster"
)

type demoPlayer struct {
	name, email, phone, category string
}

var demoEvents = []model.Event{ //nolint:gochecknoglobals // fixed demo fixture
	{Name: "VICTORY", Operation: "+", Value: 30},
	{Name: "DEFEAT", Operation: "+", Value: 0},
	{Name: "VICTORY_LEADER", Operation: "+", Value: 50},
}

var demoCategories = []roster.CategoryInput{ //nolint:gochecknoglobals // fixed demo fixture
	{Name: "A", Description: "Advanced", Events: demoEvents},
	{Name: "B", Description: "Intermediate", Events: demoEvents},
}

var demoPlayers = []demoPlayer{ //nolint:gochecknoglobals // fixed demo fixture
	{"Ana Souza", "ana@ladder.local", "+5511900000001", "A"},
	{"Bruno Lima", "bruno@ladder.local", "+5511900000002", "A"},
	{"Carla Reis", "carla@ladder.local", "+5511900000003", "B"},
	{"Diego Alves", "diego@ladder.local", "+5511900000004", "B"},
}

// seed registers the demo roster. Records that already exist are reused, so
// seeding a persistent store twice is harmless.
func seed(ctx context.Context, players *roster.Players, categories *roster.Categories) error {
	for _, in := range demoCategories {
		if _, err := categories.Create(ctx, in); err != nil && !errors.Is(err, model.ErrConflict) {
			return err
		}
	}

	existing, err := players.ListPlayers(ctx)
	if err != nil {
		return err
	}
	byEmail := make(map[string]string, len(existing))
	for _, p := range existing {
		byEmail[strings.ToLower(p.Email)] = p.ID
	}

	for _, d := range demoPlayers {
		id, ok := byEmail[d.email]
		if !ok {
			p, err := players.Create(ctx, roster.PlayerInput{Name: d.name, Email: d.email, PhoneNumber: d.phone})
			if err != nil {
				return err
			}
			id = p.ID
		}
		if err := categories.AssignPlayer(ctx, d.category, id); err != nil && !errors.Is(err, model.ErrInvalidState) {
			return err
		}
	}
	return nil
}
