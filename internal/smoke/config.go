package smoke

import (
	"time"

	"github.com/okian/ladder/pkg/logger"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Racers  int           // Concurrent assign-match requests in the race step
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Enable verbose logging

	// Logger defaults to the global logger.
	Logger logger.Logger
}

// Player mirrors the player resource.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Category mirrors the category resource.
type Category struct {
	Name    string   `json:"category"`
	Players []string `json:"players"`
}

// Match mirrors the match resource.
type Match struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Players  []string `json:"players"`
	Def      string   `json:"def"`
}

// Challenge mirrors a listed challenge with its resolved references.
type Challenge struct {
	ID               string   `json:"id"`
	Status           string   `json:"status"`
	Category         string   `json:"category"`
	Solicitator      string   `json:"solicitator"`
	Players          []string `json:"players"`
	Match            string   `json:"match"`
	DateHourResponse *string  `json:"dateHourResponse"`
	MatchRecord      *Match   `json:"matchRecord"`
}

// OrphanMatch mirrors an entry of the reconciliation log.
type OrphanMatch struct {
	MatchID     string `json:"matchId"`
	ChallengeID string `json:"challengeId"`
}

// Stats holds run statistics.
type Stats struct {
	Requests       int
	RaceWinners    int
	RaceConflicts  int
	RaceFailures   int
	OrphansSeen    int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	ScenarioPassed bool
	RacePassed     bool
}
