package repository

import "errors"

// Sentinel kinds for store construction errors. Record-level failures use the
// kinds in the model package.
var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrMissingDSN    = errors.New("store location is required")
	ErrMigration     = errors.New("migration failed")
	ErrClosed        = errors.New("store closed")
)
