package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// InteractionLedger provides MySQL implementation of repository.InteractionLedger.
type InteractionLedger struct {
	db *DB
}

// NewInteractionLedger creates a new MySQL-backed interaction ledger.
func NewInteractionLedger(db *DB) *InteractionLedger {
	return &InteractionLedger{db: db}
}

// Claim records the interaction ID unless it was recorded before.
func (l *InteractionLedger) Claim(ctx context.Context, interactionID string, at time.Time) (bool, error) {
	if interactionID == "" {
		return false, repository.ErrEmptyKey
	}

	query := `INSERT INTO processed_interactions (id, claimed_at) VALUES (?, ?)`
	if _, err := l.db.Primary().ExecContext(ctx, query, interactionID, at.UTC()); err != nil {
		if isAlreadyClaimed(err) {
			return false, nil
		}
		return false, fmt.Errorf("inserting processed interaction: %w", err)
	}

	return true, nil
}

// Release forgets a claim.
func (l *InteractionLedger) Release(ctx context.Context, interactionID string) error {
	query := `DELETE FROM processed_interactions WHERE id = ?`
	if _, err := l.db.Primary().ExecContext(ctx, query, interactionID); err != nil {
		return fmt.Errorf("releasing processed interaction: %w", err)
	}
	return nil
}

// DeleteBefore removes entries claimed before cutoff.
func (l *InteractionLedger) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM processed_interactions WHERE claimed_at < ?`
	result, err := l.db.Primary().ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting processed interactions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return int(rows), nil
}
