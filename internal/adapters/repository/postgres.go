package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/okian/ladder/pkg/errs"
)

const pgUniqueViolation = "23505"

var postgresDialect = dialect{
	name:           "postgres",
	driver:         "pgx",
	numbered:       true,
	migrationsRoot: "migrations/postgres",
	uniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

// NewPostgresStore connects to dsn and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errs.Newf("postgres.open", ErrMissingDSN, "postgres dsn is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return openSQLStore(ctx, postgresDialect, dsn, o)
}
