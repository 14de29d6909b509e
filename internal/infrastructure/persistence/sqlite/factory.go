package sqlite

import "database/sql"

// Repositories holds all SQLite repository implementations.
type Repositories struct {
	ThreadCounter *ThreadCounterRepository
	Ledger        *InteractionLedger
}

// NewRepositories creates all SQLite repositories with a shared database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		ThreadCounter: NewThreadCounterRepository(db),
		Ledger:        NewInteractionLedger(db),
	}
}
