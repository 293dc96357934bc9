package smoke

import (
	"os"
)

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	os.Stdout.WriteString(`Ladder Smoke Test
=================

Drives a running ladder service through the challenge lifecycle and a
concurrent assign-match race, then checks the stored outcome.

Usage:
  go run ./cmd/ladder-smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -racers int
        Concurrent assign-match requests in the race step (default 8)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Against a local server
  go run ./cmd/ladder-smoke

  # Harder race against a remote server
  go run ./cmd/ladder-smoke -url http://ladder.internal:8080 -racers 32
`)
}
