// Package resilience guards outbound calls to upstream platforms.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all requests through.
	StateClosed State = iota
	// StateOpen rejects all requests.
	StateOpen
	// StateHalfOpen lets probe requests through to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling an upstream after consecutive failures and
// lets calls through again once the open timeout has elapsed.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	openTimeout  time.Duration
	halfOpenSucc int
	isFailure    func(error) bool
	now          func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	openedAt     time.Time
	successCount int
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithFailureFilter decides which errors count towards opening the breaker.
// By default every non-nil error counts.
func WithFailureFilter(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.isFailure = fn
		}
	}
}

// WithClock replaces time.Now (used by tests).
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		cb.now = now
	}
}

// NewCircuitBreaker opens after maxFailures consecutive failures and stays
// open for openTimeout.
func NewCircuitBreaker(name string, maxFailures int, openTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	cb := &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		openTimeout:  openTimeout,
		halfOpenSucc: 2,
		isFailure:    func(err error) bool { return err != nil },
		now:          time.Now,
		state:        StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Sub(cb.openedAt) >= cb.openTimeout {
		cb.state = StateHalfOpen
		cb.successCount = 0
		return nil
	}
	return ErrCircuitOpen
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.isFailure(err) {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.halfOpenSucc {
			cb.state = StateClosed
			cb.failures = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
