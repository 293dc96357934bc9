package smoke

import (
	"errors"
	"fmt"
	"slices"
)

// ErrVerification marks a run whose observed state broke an expectation.
var ErrVerification = errors.New("verification failed")

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrVerification}, args...)...)
}

// verifyCreated checks a fresh challenge.
func verifyCreated(ch Challenge, f fixture) error {
	switch {
	case ch.Status != "PENDING":
		return failf("new challenge has status %s, want PENDING", ch.Status)
	case ch.Category != f.category:
		return failf("new challenge has category %s, want %s", ch.Category, f.category)
	case ch.Solicitator != f.players[0].ID:
		return failf("new challenge has solicitator %s, want %s", ch.Solicitator, f.players[0].ID)
	case ch.Match != "":
		return failf("new challenge already references match %s", ch.Match)
	}
	return nil
}

// verifyResolved checks a challenge after its match was recorded.
func verifyResolved(ch Challenge, m Match, f fixture) error {
	switch {
	case ch.Status != "DONE":
		return failf("resolved challenge has status %s, want DONE", ch.Status)
	case ch.Match != m.ID:
		return failf("challenge references match %s, want %s", ch.Match, m.ID)
	case ch.DateHourResponse == nil:
		return failf("accepted challenge has no response time")
	case ch.MatchRecord == nil:
		return failf("listing did not resolve match %s", m.ID)
	case ch.MatchRecord.Def != f.players[1].ID:
		return failf("match winner %s, want %s", ch.MatchRecord.Def, f.players[1].ID)
	case ch.MatchRecord.Category != f.category:
		return failf("match category %s, want %s", ch.MatchRecord.Category, f.category)
	}
	return nil
}

// verifyRace checks the outcome of concurrent assign-match calls: exactly
// one winner, every other call a 409, no orphans, and the challenge points at
// the winning match.
func verifyRace(ch Challenge, winners []Match, stats *Stats) error {
	switch {
	case stats.RaceWinners == 0:
		return failf("no assign-match call won the race")
	case stats.RaceWinners > 1 || len(winners) > 1:
		return failf("%d assign-match calls won the race, want 1", max(stats.RaceWinners, len(winners)))
	case stats.RaceFailures > 0:
		return failf("%d assign-match calls failed with neither 201 nor 409", stats.RaceFailures)
	case stats.OrphansSeen > 0:
		return failf("%d orphan matches recorded for the race challenge", stats.OrphansSeen)
	case ch.Status != "DONE":
		return failf("race challenge has status %s, want DONE", ch.Status)
	case ch.MatchRecord == nil:
		return failf("race challenge match %s does not resolve", ch.Match)
	}
	if !slices.ContainsFunc(winners, func(m Match) bool { return m.ID == ch.Match }) {
		return failf("race challenge references %s, which the winner did not create", ch.Match)
	}
	return nil
}
