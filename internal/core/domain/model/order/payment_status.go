package order

import (
	"fmt"

	"storefront/internal/pkg/errs"
)

// PaymentStatus represents the lifecycle state of a payment, and, derived
// across all of an order's payments, the order-level payment state.
//
// State transitions:
//
//	Pending ──> Authorized ──> Captured ──> PartiallyRefunded ──> Refunded
//	               │                              │
//	               └──> Voided                    └──────────────> Refunded
//	(any provider failure maps to Failed)
//
// PaymentStatus is a value object that validates state transitions and
// provides string representations for persistence and display.
type PaymentStatus int

const (
	// PaymentUnknown represents an invalid or undefined payment status.
	// This value (0) helps catch uninitialized PaymentStatus values.
	PaymentUnknown PaymentStatus = iota

	// PaymentPending is the initial status before any funds are reserved.
	PaymentPending

	// PaymentAuthorized indicates funds are reserved but not yet transferred.
	PaymentAuthorized

	// PaymentCaptured indicates authorized funds have been transferred.
	PaymentCaptured

	// PaymentPartiallyRefunded indicates some but not all captured funds were returned.
	PaymentPartiallyRefunded

	// PaymentRefunded indicates all captured funds were returned.
	PaymentRefunded

	// PaymentVoided indicates the authorization was cancelled before capture.
	PaymentVoided

	// PaymentFailed indicates the provider rejected or lost the payment.
	PaymentFailed
)

func getPaymentStatusStrings() map[PaymentStatus]string {
	return map[PaymentStatus]string{
		PaymentUnknown:           "Unknown",
		PaymentPending:           "Pending",
		PaymentAuthorized:        "Authorized",
		PaymentCaptured:          "Captured",
		PaymentPartiallyRefunded: "PartiallyRefunded",
		PaymentRefunded:          "Refunded",
		PaymentVoided:            "Voided",
		PaymentFailed:            "Failed",
	}
}

func getValidPaymentStatusStrings() map[PaymentStatus]string {
	//nolint:exhaustive // PaymentUnknown is intentionally excluded as it's invalid
	return map[PaymentStatus]string{
		PaymentPending:           "Pending",
		PaymentAuthorized:        "Authorized",
		PaymentCaptured:          "Captured",
		PaymentPartiallyRefunded: "PartiallyRefunded",
		PaymentRefunded:          "Refunded",
		PaymentVoided:            "Voided",
		PaymentFailed:            "Failed",
	}
}

// Validate checks if the PaymentStatus value is valid.
// PaymentUnknown (0) and out-of-range values are invalid.
func (s PaymentStatus) Validate() error {
	if _, ok := getValidPaymentStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment status is invalid",
			fmt.Errorf("%d is not a valid payment status", s),
		)
	}
	return nil
}

// String returns the human-readable name of the payment status.
// Implements fmt.Stringer and is safe to call on any value.
func (s PaymentStatus) String() string {
	if str, ok := getPaymentStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Capture transitions the status to Captured.
//
// Valid transitions:
//   - Authorized -> Captured
//
// Returns (0, error) for any other source status.
func (s PaymentStatus) Capture() (PaymentStatus, error) {
	if s != PaymentAuthorized {
		return 0, errs.NewStateConflictErrorWithCause(
			"no authorized payment found",
			fmt.Errorf("%s is not a valid status to capture", s.String()),
		)
	}
	return PaymentCaptured, nil
}

// Void transitions the status to Voided, releasing an uncaptured authorization.
//
// Valid transitions:
//   - Pending -> Voided
//   - Authorized -> Voided
//
// Returns (0, error) for any other source status.
func (s PaymentStatus) Void() (PaymentStatus, error) {
	if s != PaymentPending && s != PaymentAuthorized {
		return 0, errs.NewStateConflictErrorWithCause(
			"payment cannot be voided",
			fmt.Errorf("%s is not a valid status to void", s.String()),
		)
	}
	return PaymentVoided, nil
}

// ValidateRefundable reports whether captured funds can be returned from this status.
//
// Refundable statuses are Captured and PartiallyRefunded.
func (s PaymentStatus) ValidateRefundable() error {
	if s != PaymentCaptured && s != PaymentPartiallyRefunded {
		return errs.NewStateConflictErrorWithCause(
			"no captured payment found",
			fmt.Errorf("%s is not a valid status to refund", s.String()),
		)
	}
	return nil
}
