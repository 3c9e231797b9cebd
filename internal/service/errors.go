package service

import "fmt"

// Typed workflow errors. Handlers map these onto HTTP statuses; the engine
// never returns a bare string error for a guard or policy violation.

// ValidationError signals a guard violation (zero-item submit, missing
// reason, illegal transition). No state changes when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError signals the actor lacks permission. The message never
// confirms existence of records outside the actor's visibility.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func authorizationErrorf(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

// AlreadyResolvedError signals a lost approval race: the actor's pending
// approval was resolved or superseded concurrently. Retryable conflict.
type AlreadyResolvedError struct {
	Msg string
}

func (e *AlreadyResolvedError) Error() string { return e.Msg }

// AllocationError signals request number allocation failure (sequence
// exhaustion or lock trouble).
type AllocationError struct {
	Msg string
	// Retryable distinguishes transient contention from period exhaustion
	Retryable bool
}

func (e *AllocationError) Error() string { return e.Msg }
