package memory

import (
	"context"
	"sync"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// ThreadCounterRepository provides an in-memory implementation of repository.ThreadCounterRepository.
// Thread-safe for concurrent access. Counters reset when the process restarts.
type ThreadCounterRepository struct {
	mu       sync.Mutex
	counters map[string]int64 // scope -> last value
}

// NewThreadCounterRepository creates a new in-memory thread counter repository.
func NewThreadCounterRepository() *ThreadCounterRepository {
	return &ThreadCounterRepository{
		counters: make(map[string]int64),
	}
}

// Next increments and returns the counter for scope.
func (r *ThreadCounterRepository) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, repository.ErrEmptyKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[scope]++
	return r.counters[scope], nil
}
