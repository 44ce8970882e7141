package order

import (
	"fmt"

	"storefront/internal/pkg/errs"
)

// ShipmentStatus represents the carrier-tracking lifecycle of a single shipment.
//
// State transitions:
//
//	Pending ──> LabelCreated ──> InTransit ──> OutForDelivery ──> Delivered
//	   │             │               │
//	   │             │               └──> Exception (carrier problem, may recover)
//	   └─────────────┴──> Cancelled
//
// Statuses from external carriers are mapped onto this enum by the carrier
// adapter; unrecognized carrier statuses map to InTransit.
type ShipmentStatus int

const (
	// ShipmentUnknown represents an invalid or undefined shipment status.
	// This value (0) helps catch uninitialized ShipmentStatus values.
	ShipmentUnknown ShipmentStatus = iota

	// ShipmentPending is the initial status before a label has been purchased.
	ShipmentPending

	// LabelCreated indicates a carrier label was purchased but not yet scanned.
	LabelCreated

	// InTransit indicates the package is moving through the carrier network.
	InTransit

	// OutForDelivery indicates the package is on the final delivery vehicle.
	OutForDelivery

	// ShipmentDelivered indicates the package reached the customer.
	ShipmentDelivered

	// ShipmentException indicates a carrier-reported problem (delay, damage, loss).
	ShipmentException

	// ShipmentCancelled indicates the shipment was cancelled before handover.
	ShipmentCancelled
)

func getShipmentStatusStrings() map[ShipmentStatus]string {
	return map[ShipmentStatus]string{
		ShipmentUnknown:   "Unknown",
		ShipmentPending:   "Pending",
		LabelCreated:      "LabelCreated",
		InTransit:         "InTransit",
		OutForDelivery:    "OutForDelivery",
		ShipmentDelivered: "Delivered",
		ShipmentException: "Exception",
		ShipmentCancelled: "Cancelled",
	}
}

func getValidShipmentStatusStrings() map[ShipmentStatus]string {
	//nolint:exhaustive // ShipmentUnknown is intentionally excluded as it's invalid
	return map[ShipmentStatus]string{
		ShipmentPending:   "Pending",
		LabelCreated:      "LabelCreated",
		InTransit:         "InTransit",
		OutForDelivery:    "OutForDelivery",
		ShipmentDelivered: "Delivered",
		ShipmentException: "Exception",
		ShipmentCancelled: "Cancelled",
	}
}

// Validate checks if the ShipmentStatus value is valid.
// ShipmentUnknown (0) and out-of-range values are invalid.
func (s ShipmentStatus) Validate() error {
	if _, ok := getValidShipmentStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"shipment status is invalid",
			fmt.Errorf("%d is not a valid shipment status", s),
		)
	}
	return nil
}

// String returns the human-readable name of the shipment status.
// Implements fmt.Stringer and is safe to call on any value.
func (s ShipmentStatus) String() string {
	if str, ok := getShipmentStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsActive reports whether the shipment is still expected to produce
// tracking updates. Delivered and Cancelled shipments are terminal.
func (s ShipmentStatus) IsActive() bool {
	return s == LabelCreated || s == InTransit || s == OutForDelivery || s == ShipmentException
}

// IsCancellable reports whether the shipment may still be cancelled locally.
// Only shipments that have not been handed to the carrier qualify.
func (s ShipmentStatus) IsCancellable() bool {
	return s == ShipmentPending || s == LabelCreated
}
