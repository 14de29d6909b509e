package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// ThreadCounterRepository provides SQLite implementation of repository.ThreadCounterRepository.
type ThreadCounterRepository struct {
	db *sql.DB
}

// NewThreadCounterRepository creates a new SQLite-backed thread counter repository.
func NewThreadCounterRepository(db *sql.DB) *ThreadCounterRepository {
	return &ThreadCounterRepository{db: db}
}

// Next increments and returns the counter for scope in a single statement,
// so concurrent callers never observe the same value.
func (r *ThreadCounterRepository) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, repository.ErrEmptyKey
	}

	var value int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO thread_counters (scope, value, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(scope) DO UPDATE SET
			value = value + 1,
			updated_at = excluded.updated_at
		RETURNING value
	`, scope, formatTimestamp(time.Now())).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment thread counter: %w", err)
	}

	return value, nil
}
