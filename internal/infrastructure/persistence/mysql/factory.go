package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
)

// Store is an open, migrated MySQL database with the thread counter and the
// interaction ledger bound to it.
type Store struct {
	*DB
	ThreadCounter *ThreadCounterRepository
	Ledger        *InteractionLedger
}

// Open connects to MySQL and applies pending migrations before any counter
// or ledger query runs.
func Open(ctx context.Context, cfg *config.MySQLConfig) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("mysql config is required")
	}

	db, err := NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	if err := NewMigrator(db.Primary()).Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}

	return &Store{
		DB:            db,
		ThreadCounter: NewThreadCounterRepository(db),
		Ledger:        NewInteractionLedger(db),
	}, nil
}
