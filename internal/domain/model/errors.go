package model

import "errors"

// Sentinel error kinds shared by the domain and its adapters.
var (
	// ErrInvalidReference marks a player, category or challenge id that does not resolve.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidState marks a violated domain rule.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound marks a lookup-by-id that found nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation or a lost optimistic-concurrency race.
	ErrConflict = errors.New("conflict")
	// ErrTransient marks an infrastructure failure (timeout, connectivity) in a store.
	ErrTransient = errors.New("transient failure")
)
