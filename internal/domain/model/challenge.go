package model

import (
	"slices"
	"strings"
	"time"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	StatusPending  ChallengeStatus = "PENDING"
	StatusAccepted ChallengeStatus = "ACCEPTED"
	StatusDenied   ChallengeStatus = "DENIED"
	StatusDone     ChallengeStatus = "DONE"
	StatusCanceled ChallengeStatus = "CANCELED"
)

// ResponseStatuses are the values a participant may answer a challenge with.
var ResponseStatuses = []ChallengeStatus{StatusAccepted, StatusDenied, StatusCanceled}

// ParseResponseStatus normalises s and reports whether it is a valid response.
func ParseResponseStatus(s string) (ChallengeStatus, bool) {
	st := ChallengeStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, slices.Contains(ResponseStatuses, st)
}

// Challenge is a proposed match between players.
//
// Category is derived from the solicitator at creation and never changes.
// Match is set if and only if Status is DONE. Version increases on every
// replace and guards concurrent read-modify-write cycles.
type Challenge struct {
	ID                string          `json:"id"`
	DateHourChallenge *time.Time      `json:"dateHourChallenge,omitempty"`
	Status            ChallengeStatus `json:"status"`
	DateHourRequest   time.Time       `json:"dateHourRequest"`
	DateHourResponse  *time.Time      `json:"dateHourResponse,omitempty"`
	Solicitator       string          `json:"solicitator"`
	Category          string          `json:"category"`
	Players           []string        `json:"players"`
	Match             string          `json:"match,omitempty"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// HasPlayer reports whether playerID participates in the challenge.
func (c Challenge) HasPlayer(playerID string) bool {
	return slices.Contains(c.Players, playerID)
}

// ChallengeFilter narrows a challenge listing. The zero value matches all.
type ChallengeFilter struct {
	PlayerID string
}

// Matches reports whether c passes the filter.
func (f ChallengeFilter) Matches(c Challenge) bool {
	return f.PlayerID == "" || c.HasPlayer(f.PlayerID)
}

// ChallengeDetail is a challenge with its references resolved.
// Players that no longer resolve are returned with only their ID set.
type ChallengeDetail struct {
	Challenge
	SolicitatorPlayer Player   `json:"solicitatorPlayer"`
	PlayerRecords     []Player `json:"playerRecords"`
	MatchRecord       *Match   `json:"matchRecord,omitempty"`
}
