package repository

import (
	"context"
	"time"
)

// ThreadCounterRepository allocates thread sequence numbers.
// Following ISP: focused on naming allocation only.
type ThreadCounterRepository interface {
	// Next atomically increments and returns the counter for a scope
	// (typically the parent channel ID). The first value for a scope is 1.
	// Values are never reused, even across restarts for persistent backends.
	Next(ctx context.Context, scope string) (int64, error)
}

// InteractionLedger records interaction IDs that have already been handled,
// so a redelivered webhook does not repeat its side effects.
type InteractionLedger interface {
	// Claim records the interaction ID. It returns true if this call recorded
	// it and false if it had been claimed before.
	Claim(ctx context.Context, interactionID string, at time.Time) (bool, error)

	// Release forgets a claim so that a redelivery is handled again.
	// Releasing an unknown ID is not an error.
	Release(ctx context.Context, interactionID string) error

	// DeleteBefore removes entries claimed before the cutoff.
	// Returns the number of deleted entries.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
