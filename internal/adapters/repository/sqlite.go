package repository

import (
	"context"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/ladder/pkg/errs"
)

var sqliteDialect = dialect{
	name:           "sqlite",
	driver:         "sqlite",
	textTimes:      true,
	migrationsRoot: "migrations/sqlite",
	uniqueViolation: func(err error) bool {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

// NewSQLiteStore opens (creating if needed) the sqlite database at path and
// applies migrations. ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errs.Newf("sqlite.open", ErrMissingDSN, "sqlite path is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if isSQLiteMemory(path) {
		// every pooled connection would otherwise see its own empty database
		o.maxOpenConns = 1
	} else if !strings.Contains(path, "?") {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return openSQLStore(ctx, sqliteDialect, dsn, o)
}

func isSQLiteMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
