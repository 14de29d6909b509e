package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies embedded schema migrations and tracks them in schema_migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator for the given database connection.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Migration represents a single database migration.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Up runs all pending migrations in version order.
func (m *Migrator) Up(ctx context.Context) error {
	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	return nil
}

// Version returns the current migration version.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	return m.currentVersion(ctx)
}

// currentVersion returns 0 when nothing has been applied yet.
func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var tableExists bool
	checkTableQuery := `
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		AND table_name = 'schema_migrations'
	`
	if err := m.db.QueryRowContext(ctx, checkTableQuery).Scan(&tableExists); err != nil {
		return 0, fmt.Errorf("checking schema_migrations table: %w", err)
	}
	if !tableExists {
		return 0, nil
	}

	var version sql.NullInt64
	if err := m.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("querying current version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}

	return int(version.Int64), nil
}

// applyMigration applies a single migration in a transaction.
// DDL statements commit implicitly in MySQL; the version row is what makes
// a rerun skip the file.
func (m *Migrator) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	recordQuery := `
		INSERT INTO schema_migrations (version, applied_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE applied_at = VALUES(applied_at)
	`
	if _, err := tx.ExecContext(ctx, recordQuery, migration.Version, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// loadMigrations parses filenames like "001_initial.sql" into versioned migrations.
func (m *Migrator) loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(filename, ".sql") {
			continue
		}

		prefix, rest, ok := strings.Cut(filename, "_")
		if !ok {
			return nil, fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", filename)
		}

		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parsing version from filename %s: %w", filename, err)
		}

		content, err := migrationFiles.ReadFile("migrations/" + filename)
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", filename, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(rest, ".sql"),
			SQL:     string(content),
		})
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return a.Version - b.Version
	})

	return migrations, nil
}
