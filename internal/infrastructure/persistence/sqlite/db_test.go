package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFileDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "modmail.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableNames(t *testing.T, db *DB) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(),
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ":memory:", db.Path())
	require.NoError(t, db.Ping(context.Background()))
}

func TestNewDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modmail.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.FileExists(t, path)
}

func TestNewDB_MissingDirectory(t *testing.T) {
	_, err := NewDB(filepath.Join(t.TempDir(), "missing", "modmail.db"))
	assert.Error(t, err)
}

func TestDB_MigrateCreatesModmailSchema(t *testing.T) {
	db := openFileDB(t)
	ctx := context.Background()

	assert.Empty(t, tableNames(t, db))
	require.NoError(t, db.Migrate(ctx))

	assert.Subset(t, tableNames(t, db), []string{"processed_interactions", "schema_version", "thread_counters"})

	var index string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'processed_interactions' AND name NOT LIKE 'sqlite_%'`,
	).Scan(&index)
	require.NoError(t, err)
	assert.Equal(t, "idx_processed_interactions_claimed_at", index)
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	db := openFileDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	_, err := db.ExecContext(ctx, `INSERT INTO thread_counters (scope, value, updated_at) VALUES ('C1', 7, ?)`,
		formatTimestamp(time.Now()))
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx))

	var rows, version int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(version) FROM schema_version`).Scan(&rows, &version))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, version)

	var value int64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT value FROM thread_counters WHERE scope = 'C1'`).Scan(&value))
	assert.Equal(t, int64(7), value, "rerunning migrations must keep counter rows")
}

func TestDB_CloseStopsPing(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "modmail.db"))
	require.NoError(t, err)

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestIsAlreadyClaimed(t *testing.T) {
	db := openFileDB(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	insert := `INSERT INTO processed_interactions (id, claimed_at) VALUES (?, ?)`
	_, err := db.ExecContext(ctx, insert, "I1", formatTimestamp(time.Now()))
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "I1", formatTimestamp(time.Now()))
	require.Error(t, err)
	assert.True(t, isAlreadyClaimed(err))

	assert.False(t, isAlreadyClaimed(errors.New("UNIQUE constraint failed")))
	assert.False(t, isAlreadyClaimed(nil))
}

func TestFormatTimestamp_SortsChronologically(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	earlier := time.Date(2024, 1, 1, 8, 0, 0, 0, loc)
	later := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)

	assert.Equal(t, "2023-12-31T23:00:00Z", formatTimestamp(earlier))
	assert.Less(t, formatTimestamp(earlier), formatTimestamp(later))
}
