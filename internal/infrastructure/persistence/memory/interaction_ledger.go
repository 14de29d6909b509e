package memory

import (
	"context"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// InteractionLedger provides an in-memory implementation of repository.InteractionLedger.
// Thread-safe for concurrent access.
type InteractionLedger struct {
	mu      sync.Mutex
	claimed map[string]time.Time // interaction id -> claimed at
}

// NewInteractionLedger creates a new in-memory interaction ledger.
func NewInteractionLedger() *InteractionLedger {
	return &InteractionLedger{
		claimed: make(map[string]time.Time),
	}
}

// Claim records the interaction ID unless it was recorded before.
func (l *InteractionLedger) Claim(ctx context.Context, interactionID string, at time.Time) (bool, error) {
	if interactionID == "" {
		return false, repository.ErrEmptyKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.claimed[interactionID]; ok {
		return false, nil
	}
	l.claimed[interactionID] = at
	return true, nil
}

// Release forgets a claim.
func (l *InteractionLedger) Release(ctx context.Context, interactionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.claimed, interactionID)
	return nil
}

// DeleteBefore removes entries claimed before cutoff.
func (l *InteractionLedger) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	deleted := 0
	for id, at := range l.claimed {
		if at.Before(cutoff) {
			delete(l.claimed, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of claimed entries.
func (l *InteractionLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.claimed)
}
