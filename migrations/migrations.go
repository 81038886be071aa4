// migrations/migrations.go
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sql/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// conn is the slice of pgxpool.Pool the migrator uses.
type conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Apply executes the embedded migration files in lexical order, recording
// each applied file so re-running the whole set is a no-op. DDL inside a
// file is itself guarded (IF NOT EXISTS), so even an unrecorded re-run of
// a single file succeeds.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return applyAll(ctx, pool, migrationFS)
}

func applyAll(ctx context.Context, db conn, fsys fs.FS) error {
	files, err := ListFiles(fsys, "sql")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL
);`, migrationTable)
	if _, err := db.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	recordSQL := fmt.Sprintf(
		"INSERT INTO %s (name, applied_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING", migrationTable)

	for _, file := range files {
		applied, err := isApplied(ctx, db, file)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(fsys, "sql/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration transaction %s: %w", file, err)
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			// A failed statement aborts the whole transaction, so the
			// ledger insert cannot ride in it. Roll back first, then
			// record duplicates on a fresh connection.
			_ = tx.Rollback(ctx)
			if !IsAlreadyExistsError(err) {
				return fmt.Errorf("exec migration %s: %w", file, err)
			}
			if _, err := db.Exec(ctx, recordSQL, file, time.Now().UTC()); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			log.Printf("Migration %s was already applied, recorded", file)
			continue
		}

		if _, err := tx.Exec(ctx, recordSQL, file, time.Now().UTC()); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", file, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}

		log.Printf("Applied migration %s", file)
	}

	return nil
}

// ListFiles returns the .sql files under root in apply order.
func ListFiles(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsAlreadyExistsError reports whether this error indicates idempotent DDL
// success: the column, table or index was added by a previous run.
func IsAlreadyExistsError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42701", // duplicate_column
			"42P07", // duplicate_table
			"42710": // duplicate_object
			return true
		}
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column")
}

func isApplied(ctx context.Context, db conn, name string) (bool, error) {
	var found int
	err := db.QueryRow(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = $1", name).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
