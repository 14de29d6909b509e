package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// InteractionLedger provides SQLite implementation of repository.InteractionLedger.
type InteractionLedger struct {
	db *sql.DB
}

// NewInteractionLedger creates a new SQLite-backed interaction ledger.
func NewInteractionLedger(db *sql.DB) *InteractionLedger {
	return &InteractionLedger{db: db}
}

// Claim records the interaction ID unless it was recorded before.
func (l *InteractionLedger) Claim(ctx context.Context, interactionID string, at time.Time) (bool, error) {
	if interactionID == "" {
		return false, repository.ErrEmptyKey
	}

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO processed_interactions (id, claimed_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, interactionID, formatTimestamp(at))
	if err != nil {
		if isAlreadyClaimed(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert processed interaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows == 1, nil
}

// Release forgets a claim.
func (l *InteractionLedger) Release(ctx context.Context, interactionID string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM processed_interactions WHERE id = ?`, interactionID); err != nil {
		return fmt.Errorf("release processed interaction: %w", err)
	}
	return nil
}

// DeleteBefore removes entries claimed before cutoff.
func (l *InteractionLedger) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := l.db.ExecContext(ctx, `
		DELETE FROM processed_interactions WHERE claimed_at < ?
	`, formatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete processed interactions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return int(rows), nil
}
