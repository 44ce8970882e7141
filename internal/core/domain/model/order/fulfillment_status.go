package order

import (
	"fmt"

	"storefront/internal/pkg/errs"
)

// FulfillmentStatus represents the order-level fulfillment state. It is always
// derived from the order's items and shipments, never set directly by callers,
// with the single exception of the explicit Cancelled transition.
//
// State transitions:
//
//	Pending ──> PartiallyFulfilled ──> Fulfilled ──> PartiallyDelivered ──> Delivered
//	   │                │                  │                  │
//	   └────────────────┴──────────────────┴──> Cancelled <───┘
//	(Delivered orders can no longer be cancelled)
type FulfillmentStatus int

const (
	// FulfillmentUnknown represents an invalid or undefined fulfillment status.
	// This value (0) helps catch uninitialized FulfillmentStatus values.
	FulfillmentUnknown FulfillmentStatus = iota

	// FulfillmentPending is the initial status: nothing has shipped yet.
	FulfillmentPending

	// PartiallyFulfilled indicates some but not all item quantities have shipped.
	PartiallyFulfilled

	// Fulfilled indicates every item quantity has shipped.
	Fulfilled

	// PartiallyDelivered indicates some but not all shipments reached the customer.
	PartiallyDelivered

	// Delivered indicates every shipment reached the customer.
	Delivered

	// FulfillmentCancelled indicates the order was cancelled.
	FulfillmentCancelled
)

func getFulfillmentStatusStrings() map[FulfillmentStatus]string {
	return map[FulfillmentStatus]string{
		FulfillmentUnknown:   "Unknown",
		FulfillmentPending:   "Pending",
		PartiallyFulfilled:   "PartiallyFulfilled",
		Fulfilled:            "Fulfilled",
		PartiallyDelivered:   "PartiallyDelivered",
		Delivered:            "Delivered",
		FulfillmentCancelled: "Cancelled",
	}
}

func getValidFulfillmentStatusStrings() map[FulfillmentStatus]string {
	//nolint:exhaustive // FulfillmentUnknown is intentionally excluded as it's invalid
	return map[FulfillmentStatus]string{
		FulfillmentPending:   "Pending",
		PartiallyFulfilled:   "PartiallyFulfilled",
		Fulfilled:            "Fulfilled",
		PartiallyDelivered:   "PartiallyDelivered",
		Delivered:            "Delivered",
		FulfillmentCancelled: "Cancelled",
	}
}

// Validate checks if the FulfillmentStatus value is valid.
// FulfillmentUnknown (0) and out-of-range values are invalid.
func (s FulfillmentStatus) Validate() error {
	if _, ok := getValidFulfillmentStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"fulfillment status is invalid",
			fmt.Errorf("%d is not a valid fulfillment status", s),
		)
	}
	return nil
}

// String returns the human-readable name of the fulfillment status.
// Implements fmt.Stringer and is safe to call on any value.
func (s FulfillmentStatus) String() string {
	if str, ok := getFulfillmentStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// ValidateCancel checks whether an order in this status may be cancelled.
//
// Delivered orders can never be cancelled; everything else can.
func (s FulfillmentStatus) ValidateCancel() error {
	if s == Delivered {
		return errs.NewStateConflictErrorWithCause(
			"order cannot be cancelled",
			fmt.Errorf("%s is not a valid status to cancel", s.String()),
		)
	}
	return nil
}

// Cancel transitions the status to Cancelled.
//
// Returns (0, error) if the order has already been delivered.
func (s FulfillmentStatus) Cancel() (FulfillmentStatus, error) {
	if err := s.ValidateCancel(); err != nil {
		return 0, err
	}
	return FulfillmentCancelled, nil
}
