package kernel

import (
	"fmt"

	"storefront/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed indicates that a UUID was not properly initialized through one of the constructor functions.
// This error is returned when validating a zero-value UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID is a value object that represents a universally unique identifier.
// It wraps the github.com/google/uuid implementation to provide domain-specific
// behavior and ensure immutability. Every entity in the order aggregate —
// the order itself, its items, payments, shipments, refunds and tracking
// events — is identified by a kernel.UUID, as are audit records.
//
// The zero value of UUID is invalid and must be constructed using one of the
// provided factory functions: NewUUID, UUIDFromString, or UUIDFromBytes.
//
// UUID is immutable and thread-safe, making it suitable for concurrent use.
//
// Example usage:
//
//	// Create a new identifier for a fresh entity
//	orderID := kernel.NewUUID()
//
//	// Parse an identifier arriving on the HTTP surface
//	orderID, err := kernel.UUIDFromString("550e8400-e29b-41d4-a716-446655440000")
//	if err != nil {
//	    // handle error
//	}
type UUID struct {
	id uuid.UUID
}

// NewUUID generates a new random UUID (version 4).
// This is the primary way to mint identifiers for new orders, payments,
// shipments and refunds. The generated UUID is guaranteed to be valid and
// unique with extremely high probability.
//
// Example:
//
//	paymentID := kernel.NewUUID()
//	fmt.Println(paymentID.String()) // e.g., "550e8400-e29b-41d4-a716-446655440000"
func NewUUID() UUID {
	return UUID{
		id: uuid.New(),
	}
}

// UUIDFromString parses a UUID from its string representation.
// It accepts standard UUID formats including:
//   - "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
//   - "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"
//   - "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8"
//
// Returns an error if the string is not a valid UUID format.
// The HTTP layer uses this to turn path and payload identifiers into
// domain IDs before anything reaches a command.
//
// Example:
//
//	id, err := kernel.UUIDFromString(request.OrderID)
//	if err != nil {
//	    return fmt.Errorf("invalid order ID: %w", err)
//	}
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	return UUID{id: id}, nil
}

// UUIDFromBytes creates a UUID from a byte slice.
// The byte slice must be exactly 16 bytes long.
// Returns an error if the byte slice is not valid for UUID construction.
//
// The persistence layer uses this when restoring aggregates: database DTOs
// store identifiers as uuid columns, and the nil-UUID check here rejects a
// row whose key was never set.
//
// Example:
//
//	id, err := kernel.UUIDFromBytes(dto.ID[:])
//	if err != nil {
//	    return fmt.Errorf("invalid order ID: %w", err)
//	}
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}

	return newID, nil
}

// String returns the standard string representation of the UUID.
// The format is "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" where x is a
// hexadecimal digit. For a zero value UUID, this returns
// "00000000-0000-0000-0000-000000000000".
//
// This is the representation used for per-order lock keys, audit entity IDs,
// structured log fields and HTTP responses.
//
// Example:
//
//	locks.Lock(orderID.String())
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the underlying UUID value.
// Note: This returns the internal uuid.UUID type, not a byte slice.
// For a byte slice representation, use id.Bytes()[:].
//
// The persistence DTOs use this to fill their uuid-typed columns; outside
// the adapters, direct access should be minimized to maintain encapsulation.
//
// Example:
//
//	dto := OrderDTO{ID: aggregate.ID().Bytes()}
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual compares two UUIDs for equality.
// Returns true if both UUIDs represent the same value, false otherwise.
//
// Example:
//
//	if payment.ID().IsEqual(paymentID) {
//	    // found the payment the command refers to
//	}
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Validate checks if the UUID is properly constructed.
// Returns ErrUUIDIsNotConstructed if the UUID is a zero value (nil UUID).
// A valid UUID is any UUID that was created through one of the constructor
// functions.
//
// Entity constructors call this on every identifier they receive, so a
// zero-valued ID never makes it into an aggregate.
//
// Example:
//
//	func NewPayment(id kernel.UUID, ...) (*Payment, error) {
//	    if err := id.Validate(); err != nil {
//	        return nil, err
//	    }
//	    ...
//	}
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
