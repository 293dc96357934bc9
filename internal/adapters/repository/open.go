package repository

import (
	"context"

	"github.com/okian/ladder/pkg/errs"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds the Store for driver. location is the sqlite path or the
// postgres DSN and is ignored for the memory driver.
func Open(ctx context.Context, driver, location string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(ctx, opts...), nil
	case DriverSQLite:
		s, err := NewSQLiteStore(ctx, location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgresStore(ctx, location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errs.Newf("repository.open", ErrUnknownDriver, "%q", driver)
	}
}
