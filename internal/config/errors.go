package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure; the message names the key.
	ErrInvalidConfig = errors.New("invalid ladder config")
	// ErrLoadConfig wraps failures reading LADDER_CONFIG or the LADDER_ environment.
	ErrLoadConfig = errors.New("load ladder config")
)
