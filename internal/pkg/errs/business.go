package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for business-level failure classes. StateConflict covers
// operations that are not valid for the current entity state; ProviderFailure
// covers failed calls to an external payment or shipping provider.
var (
	ErrStateConflict   = errors.New("state conflict")
	ErrProviderFailure = errors.New("provider call failed")
)

// StateConflictError indicates that an operation is not allowed in the entity's
// current state, e.g. cancelling a delivered order or refunding beyond the
// captured balance. HTTP handlers map it to 409.
type StateConflictError struct {
	Message string
	Cause   error
}

// NewStateConflictError creates a StateConflictError without an underlying cause.
func NewStateConflictError(message string) *StateConflictError {
	return &StateConflictError{Message: message}
}

// NewStateConflictErrorWithCause creates a StateConflictError wrapping an underlying cause.
func NewStateConflictErrorWithCause(message string, cause error) *StateConflictError {
	return &StateConflictError{Message: message, Cause: cause}
}

func (e *StateConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrStateConflict, sanitize(e.Message), e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrStateConflict, sanitize(e.Message))
}

func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}

// ProviderError indicates a failed call to an external provider. The original
// provider message is preserved in Cause; adapters never retry on their own.
type ProviderError struct {
	Provider  string
	Operation string
	Cause     error
}

// NewProviderError creates a ProviderError for the given provider and operation.
func NewProviderError(provider, operation string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Operation: operation, Cause: cause}
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s (cause: %s)", ErrProviderFailure, e.Provider, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", ErrProviderFailure, e.Provider, e.Operation)
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderFailure
}
