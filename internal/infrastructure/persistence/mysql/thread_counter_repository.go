package mysql

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// ThreadCounterRepository provides MySQL implementation of repository.ThreadCounterRepository.
type ThreadCounterRepository struct {
	db *DB
}

// NewThreadCounterRepository creates a new MySQL-backed thread counter repository.
func NewThreadCounterRepository(db *DB) *ThreadCounterRepository {
	return &ThreadCounterRepository{db: db}
}

// Next increments and returns the counter for scope.
// LAST_INSERT_ID(expr) hands the new value back on the same connection,
// so the increment and read are one atomic statement.
func (r *ThreadCounterRepository) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, repository.ErrEmptyKey
	}

	query := `
		INSERT INTO thread_counters (scope, value)
		VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)
	`
	result, err := r.db.Primary().ExecContext(ctx, query, scope)
	if err != nil {
		return 0, fmt.Errorf("incrementing thread counter: %w", err)
	}

	value, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading thread counter: %w", err)
	}

	return value, nil
}
