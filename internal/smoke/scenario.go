package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/ladder/pkg/logger"
)

// fixture is the roster a run creates for itself. Names carry a run id so
// repeated runs against one server never collide.
type fixture struct {
	category string
	players  []Player
}

type event struct {
	Name      string  `json:"name"`
	Operation string  `json:"operation"`
	Value     float64 `json:"value"`
}

type result struct {
	Set string `json:"set"`
}

type assignMatchBody struct {
	Def    string   `json:"def"`
	Result []result `json:"result"`
}

// setupRoster registers a category and two players in it.
func setupRoster(ctx context.Context, c *client) (fixture, error) {
	run := uuid.NewString()[:8]
	f := fixture{category: "smoke-" + run}

	if err := c.do(ctx, http.MethodPost, apiPrefix+"/categories", map[string]any{
		"category":    f.category,
		"description": "smoke run " + run,
		"events":      []event{{Name: "VICTORY", Operation: "+", Value: 30}},
	}, nil, http.StatusCreated); err != nil {
		return fixture{}, fmt.Errorf("create category: %w", err)
	}

	for _, name := range []string{"home", "away"} {
		var p Player
		if err := c.do(ctx, http.MethodPost, apiPrefix+"/players", map[string]string{
			"name":  name + " " + run,
			"email": name + "-" + run + "@smoke.ladder.local",
		}, &p, http.StatusCreated); err != nil {
			return fixture{}, fmt.Errorf("create player %s: %w", name, err)
		}
		path := fmt.Sprintf("%s/categories/%s/players/%s", apiPrefix, f.category, p.ID)
		if err := c.do(ctx, http.MethodPost, path, nil, nil, http.StatusNoContent); err != nil {
			return fixture{}, fmt.Errorf("assign player %s: %w", name, err)
		}
		f.players = append(f.players, p)
	}
	return f, nil
}

func (f fixture) createChallenge(ctx context.Context, c *client) (Challenge, error) {
	var ch Challenge
	err := c.do(ctx, http.MethodPost, apiPrefix+"/challenges", map[string]any{
		"players":     []string{f.players[0].ID, f.players[1].ID},
		"solicitator": f.players[0].ID,
	}, &ch, http.StatusCreated)
	return ch, err
}

func listChallenges(ctx context.Context, c *client, playerID string) ([]Challenge, error) {
	var out []Challenge
	err := c.do(ctx, http.MethodGet, apiPrefix+"/challenges?idPlayer="+playerID, nil, &out, http.StatusOK)
	return out, err
}

func findChallenge(list []Challenge, id string) (Challenge, bool) {
	for _, ch := range list {
		if ch.ID == id {
			return ch, true
		}
	}
	return Challenge{}, false
}

// runScenario walks one challenge from request to result.
func runScenario(ctx context.Context, c *client, f fixture, l logger.Logger) error {
	ch, err := f.createChallenge(ctx, c)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	if err := verifyCreated(ch, f); err != nil {
		return err
	}
	l.Info(ctx, "challenge created", logger.String("challenge_id", ch.ID))

	if err := c.do(ctx, http.MethodPut, apiPrefix+"/challenges/"+ch.ID,
		map[string]string{"status": "accepted"}, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("accept challenge: %w", err)
	}

	var m Match
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/challenges/"+ch.ID+"/match", assignMatchBody{
		Def:    f.players[1].ID,
		Result: []result{{Set: "6-2"}, {Set: "6-4"}},
	}, &m, http.StatusCreated); err != nil {
		return fmt.Errorf("assign match: %w", err)
	}
	l.Info(ctx, "match recorded", logger.String("match_id", m.ID))

	list, err := listChallenges(ctx, c, f.players[0].ID)
	if err != nil {
		return fmt.Errorf("list challenges: %w", err)
	}
	got, ok := findChallenge(list, ch.ID)
	if !ok {
		return fmt.Errorf("challenge %s missing from listing", ch.ID)
	}
	return verifyResolved(got, m, f)
}

// runRace fires racers concurrent assign-match calls at one challenge.
// Exactly one call may win (201); every other one must get 409.
func runRace(ctx context.Context, c *client, f fixture, racers int, stats *Stats, l logger.Logger) error {
	ch, err := f.createChallenge(ctx, c)
	if err != nil {
		return fmt.Errorf("create race challenge: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []Match
	)
	start := make(chan struct{})
	for i := range racers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			var m Match
			err := c.do(ctx, http.MethodPost, apiPrefix+"/challenges/"+ch.ID+"/match", assignMatchBody{
				Def:    f.players[i%len(f.players)].ID,
				Result: []result{{Set: fmt.Sprintf("6-%d", i%5)}},
			}, &m, http.StatusCreated)

			mu.Lock()
			defer mu.Unlock()
			var se *StatusError
			switch {
			case err == nil:
				winners = append(winners, m)
				stats.RaceWinners++
			case errors.As(err, &se) && se.Status == http.StatusConflict:
				stats.RaceConflicts++
			default:
				stats.RaceFailures++
				l.Warn(ctx, "race request failed", logger.Error(err))
			}
		}(i)
	}
	close(start)
	wg.Wait()

	l.Info(ctx, "race finished",
		logger.Int("winners", stats.RaceWinners),
		logger.Int("conflicts", stats.RaceConflicts),
		logger.Int("failures", stats.RaceFailures),
	)

	list, err := listChallenges(ctx, c, f.players[0].ID)
	if err != nil {
		return fmt.Errorf("list challenges: %w", err)
	}
	got, ok := findChallenge(list, ch.ID)
	if !ok {
		return fmt.Errorf("race challenge %s missing from listing", ch.ID)
	}

	var orphans []OrphanMatch
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/admin/orphan-matches", nil, &orphans, http.StatusOK); err != nil {
		return fmt.Errorf("list orphan matches: %w", err)
	}
	for _, o := range orphans {
		if o.ChallengeID == ch.ID {
			stats.OrphansSeen++
		}
	}

	return verifyRace(got, winners, stats)
}
