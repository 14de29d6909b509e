// Package errors holds the domain error taxonomy shared by use cases and adapters.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedInteraction is returned for verified requests whose type or
	// custom id the dispatcher has no transition for.
	ErrUnrecognizedInteraction = errors.New("unrecognized interaction")

	// ErrMalformedInteraction is returned when a payload is missing fields its
	// declared type requires.
	ErrMalformedInteraction = errors.New("malformed interaction")

	// ErrRateLimited is returned when a platform route bucket is still limited.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorKind classifies upstream failures.
type ErrorKind int

const (
	// KindPermanent failures will fail again if repeated unchanged.
	KindPermanent ErrorKind = iota
	// KindTransient failures may succeed on redelivery.
	KindTransient
)

// DomainError wraps an upstream failure with its classification.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a transient failure.
func NewTransientError(message string, err error) error {
	return &DomainError{Kind: KindTransient, Message: message, Err: err}
}

// NewPermanentError wraps err as a permanent failure.
func NewPermanentError(message string, err error) error {
	return &DomainError{Kind: KindPermanent, Message: message, Err: err}
}

// IsTransientError reports whether err (or anything it wraps) is transient.
func IsTransientError(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == KindTransient
	}
	return false
}
