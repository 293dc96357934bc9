package model

import (
	"slices"
	"time"
)

// Result is the score of one set, e.g. "6-3".
type Result struct {
	Set string `json:"set"`
}

// Match is the recorded outcome of a resolved challenge. It is immutable once
// stored; deletion only happens as compensation for a failed challenge update.
type Match struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Players   []string  `json:"players"`
	Def       string    `json:"def"`
	Result    []Result  `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasPlayer reports whether playerID took part in the match.
func (m Match) HasPlayer(playerID string) bool {
	return slices.Contains(m.Players, playerID)
}

// OrphanMatch records a match whose compensating delete failed. Entries are
// kept for reconciliation and never retried automatically.
type OrphanMatch struct {
	MatchID     string    `json:"matchId"`
	ChallengeID string    `json:"challengeId"`
	Reason      string    `json:"reason"`
	DetectedAt  time.Time `json:"detectedAt"`
}
