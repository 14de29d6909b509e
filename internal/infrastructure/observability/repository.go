package observability

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// InstrumentedThreadCounter records metrics around a ThreadCounterRepository.
type InstrumentedThreadCounter struct {
	next    repository.ThreadCounterRepository
	metrics *Metrics
}

// InstrumentThreadCounter wraps repo. A nil metrics returns repo unchanged.
func InstrumentThreadCounter(repo repository.ThreadCounterRepository, metrics *Metrics) repository.ThreadCounterRepository {
	if metrics == nil {
		return repo
	}
	return &InstrumentedThreadCounter{next: repo, metrics: metrics}
}

// Next implements repository.ThreadCounterRepository.
func (r *InstrumentedThreadCounter) Next(ctx context.Context, scope string) (int64, error) {
	start := time.Now()
	n, err := r.next.Next(ctx, scope)
	r.metrics.RecordRepositoryOperation(ctx, "next", "thread_counter", time.Since(start), err == nil)
	return n, err
}

// InstrumentedLedger records metrics around an InteractionLedger.
type InstrumentedLedger struct {
	next    repository.InteractionLedger
	metrics *Metrics
}

// InstrumentLedger wraps ledger. A nil metrics returns ledger unchanged.
func InstrumentLedger(ledger repository.InteractionLedger, metrics *Metrics) repository.InteractionLedger {
	if metrics == nil {
		return ledger
	}
	return &InstrumentedLedger{next: ledger, metrics: metrics}
}

// Claim implements repository.InteractionLedger.
func (l *InstrumentedLedger) Claim(ctx context.Context, interactionID string, at time.Time) (bool, error) {
	start := time.Now()
	ok, err := l.next.Claim(ctx, interactionID, at)
	l.metrics.RecordRepositoryOperation(ctx, "claim", "interaction", time.Since(start), err == nil)
	return ok, err
}

// Release implements repository.InteractionLedger.
func (l *InstrumentedLedger) Release(ctx context.Context, interactionID string) error {
	start := time.Now()
	err := l.next.Release(ctx, interactionID)
	l.metrics.RecordRepositoryOperation(ctx, "release", "interaction", time.Since(start), err == nil)
	return err
}

// DeleteBefore implements repository.InteractionLedger.
func (l *InstrumentedLedger) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	n, err := l.next.DeleteBefore(ctx, cutoff)
	l.metrics.RecordRepositoryOperation(ctx, "delete_before", "interaction", time.Since(start), err == nil)
	return n, err
}
