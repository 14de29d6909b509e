package interaction

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// ThreadNamer allocates thread names from a persisted per-channel counter,
// so concurrent opens never receive the same name.
type ThreadNamer struct {
	counter repository.ThreadCounterRepository
}

// NewThreadNamer creates a namer backed by counter.
func NewThreadNamer(counter repository.ThreadCounterRepository) *ThreadNamer {
	return &ThreadNamer{counter: counter}
}

// Next returns the next name for a thread under parentID, e.g. "support-0042".
func (n *ThreadNamer) Next(ctx context.Context, prefix, parentID string) (string, error) {
	seq, err := n.counter.Next(ctx, parentID)
	if err != nil {
		return "", fmt.Errorf("allocating thread number: %w", err)
	}
	return entity.ThreadName(prefix, seq), nil
}
