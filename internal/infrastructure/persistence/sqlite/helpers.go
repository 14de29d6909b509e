package sqlite

import (
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// formatTimestamp stores claim and counter times as RFC3339 in UTC, so that
// string comparison in DeleteBefore follows time order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// isAlreadyClaimed reports whether an insert into processed_interactions
// collided with an existing interaction id.
func isAlreadyClaimed(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
