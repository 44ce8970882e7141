// Package guard provides the ConstructorGuard defensive pattern used by commands
// and value objects to ensure they are only created through their designated
// constructor functions.
package guard

import "errors"

// ErrDefaultConstructorGuard is the default error returned by ConstructorGuard.Validate()
// when a nil error is passed as the validation error. This ensures that validation
// always fails with a meaningful message even if no specific error is provided.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard detects whether a struct was created through its constructor
// or left as a zero value. Embedding a guard in a struct and validating it before
// use prevents accidental direct initialization from bypassing invariants.
//
// Example usage:
//
//	type Money struct {
//	    amount   int
//	    currency string
//	    guard    guard.ConstructorGuard
//	}
//
//	func NewMoney(amount int, currency string) (Money, error) {
//	    // validate inputs...
//	    return Money{amount: amount, currency: currency, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (m Money) Validate() error {
//	    return m.guard.Validate(ErrMoneyNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard that marks an object as properly constructed.
// This should be called in the constructor of domain objects so they can be
// distinguished from zero-value instances.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate checks whether the guarded object was properly constructed.
//
// Returns:
//   - nil if the object was created through its constructor
//   - validationError if the object is a zero value
//   - ErrDefaultConstructorGuard if validationError is nil and the object is a zero value
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
