package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/okian/ladder/pkg/errs"
)

//go:embed migrations
var bundledMigrations embed.FS

const migrationTable = "schema_migrations"

// applyMigrations executes every .sql file under root in name order, each at
// most once, recording applied files in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB, d dialect, fsys fs.FS, root string) error {
	const op = "repository.migrate"

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+migrationTable+` (
  filename TEXT PRIMARY KEY,
  applied_at TEXT NOT NULL
);`); err != nil {
		return errs.WrapKind(op, ErrMigration, fmt.Errorf("create %s: %w", migrationTable, err))
	}

	applied, err := loadAppliedMigrations(ctx, db)
	if err != nil {
		return errs.WrapKind(op, ErrMigration, err)
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return errs.WrapKind(op, ErrMigration, fmt.Errorf("read migrations %s: %w", root, err))
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		if applied[name] {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return errs.WrapKind(op, ErrMigration, fmt.Errorf("read migration %s: %w", name, err))
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if err := applyMigration(ctx, db, d, name, string(content)); err != nil {
			return errs.WrapKind(op, ErrMigration, fmt.Errorf("apply migration %s: %w", name, err))
		}
	}
	return nil
}

func loadAppliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT filename FROM `+migrationTable)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", migrationTable, err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", migrationTable, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, d dialect, filename, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, content); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		d.rebind(`INSERT INTO `+migrationTable+` (filename, applied_at) VALUES (?, ?)`),
		filename, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration tx: %w", err)
	}
	return nil
}
