// Package migrations applies the embedded schema to SQLite and PostgreSQL.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     TEXT PRIMARY KEY,
    applied_at  TEXT NOT NULL
)`

// Files returns the ordered .up.sql migration names for a driver.
func Files(driver database.Driver) ([]string, error) {
	dir, err := dirFor(driver)
	if err != nil {
		return nil, err
	}

	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

// Run applies every migration not yet recorded in schema_migrations.
// It returns the versions applied by this call.
func Run(ctx context.Context, db *sql.DB, driver database.Driver) ([]string, error) {
	files, err := Files(driver)
	if err != nil {
		return nil, err
	}
	dir, _ := dirFor(driver)

	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, describe("create schema_migrations", err)
	}

	var applied []string
	for _, file := range files {
		version := strings.TrimSuffix(file, ".up.sql")

		var exists int
		err := db.QueryRowContext(ctx,
			driver.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version,
		).Scan(&exists)
		if err != nil {
			return applied, describe("check "+version, err)
		}
		if exists > 0 {
			continue
		}

		body, err := migrationFS.ReadFile(dir + "/" + file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, describe("begin "+version, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return applied, describe("execute "+file, err)
		}
		if _, err := tx.ExecContext(ctx,
			driver.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
			version, time.Now().UTC().Format(database.TimestampLayout),
		); err != nil {
			_ = tx.Rollback()
			return applied, describe("record "+version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, describe("commit "+version, err)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// OpenPostgres opens a database/sql handle through lib/pq for running migrations.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, describe("ping postgres", err)
	}
	return db, nil
}

// RunPostgresMigrations applies the postgres schema at url.
func RunPostgresMigrations(ctx context.Context, url string) ([]string, error) {
	db, err := OpenPostgres(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return Run(ctx, db, database.DriverPostgres)
}

type sqlDBProvider interface {
	DB() *sql.DB
}

// Migrate applies the schema through an open connection. Postgres pools do not
// expose a database/sql handle, so for them url is reopened through lib/pq.
func Migrate(ctx context.Context, conn database.Connection, url string) ([]string, error) {
	if p, ok := conn.(sqlDBProvider); ok {
		return Run(ctx, p.DB(), conn.Driver())
	}
	if conn.Driver() == database.DriverPostgres {
		return RunPostgresMigrations(ctx, url)
	}
	return nil, fmt.Errorf("cannot migrate %s connection", conn.Driver())
}

func dirFor(driver database.Driver) (string, error) {
	switch driver {
	case database.DriverSQLite:
		return "sqlite", nil
	case database.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// describe adds the SQLSTATE code to PostgreSQL errors.
func describe(step string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("migration %s failed (sqlstate %s): %w", step, pqErr.Code, err)
	}
	return fmt.Errorf("migration %s failed: %w", step, err)
}
