package kernel

import (
	"fmt"

	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

// ErrMoneyIsNotConstructed is returned when attempting to use an improperly initialized Money.
// Money must be created using the NewMoney constructor to ensure validity.
var ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError(
	"money must be created via NewMoney constructor")

// Money represents a non-negative monetary amount in integer cents.
// Money is an immutable value object; all arithmetic returns new instances
// and never lets an amount go below zero.
//
// Example:
//
//	total, err := kernel.NewMoney(1000)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Printf("Total: %s", total) // Output: 1000¢
type Money struct {
	cents int64
	guard guard.ConstructorGuard
}

// NewMoney creates a Money value from an amount in cents.
// The amount must be zero or positive.
//
// Returns:
//   - Money: A valid money instance
//   - error: Validation error if the amount is negative
func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"cents", fmt.Errorf("%d is negative", cents))
	}

	return Money{
		cents: cents,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Cents returns the amount in integer cents.
func (m Money) Cents() int64 {
	return m.cents
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsEqual compares two monetary amounts for equality.
func (m Money) IsEqual(other Money) bool {
	return m.cents == other.cents
}

// Add returns the sum of two monetary amounts.
func (m Money) Add(other Money) (Money, error) {
	return NewMoney(m.cents + other.cents)
}

// Subtract returns the difference of two monetary amounts.
// Returns an error if the result would be negative, keeping the
// captured-minus-refunded balance invariant enforceable at the type level.
func (m Money) Subtract(other Money) (Money, error) {
	if other.cents > m.cents {
		return Money{}, errs.NewValueIsOutOfRangeError("cents", m.cents-other.cents, 0, m.cents)
	}
	return NewMoney(m.cents - other.cents)
}

// GreaterThan reports whether the amount exceeds the other amount.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// String returns the amount formatted as integer cents.
func (m Money) String() string {
	return fmt.Sprintf("%d¢", m.cents)
}

// Validate checks if the Money value was properly constructed.
// Returns ErrMoneyIsNotConstructed for zero-value instances.
func (m Money) Validate() error {
	return m.guard.Validate(ErrMoneyIsNotConstructed)
}
