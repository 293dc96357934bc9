package smoke

import "time"

// Defaults for the command line.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultRacers  = 8
	DefaultTimeout = 10 * time.Second
)

const apiPrefix = "/api/v1"
