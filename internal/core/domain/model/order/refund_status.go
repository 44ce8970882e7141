package order

import (
	"fmt"

	"storefront/internal/pkg/errs"
)

// RefundStatus represents the provider-side state of a refund.
//
// State transitions:
//
//	Processing ──> Succeeded
//	     └───────> Failed
type RefundStatus int

const (
	// RefundUnknown represents an invalid or undefined refund status.
	RefundUnknown RefundStatus = iota

	// RefundProcessing indicates the provider accepted the refund request.
	RefundProcessing

	// RefundSucceeded indicates the provider confirmed the money was returned.
	RefundSucceeded

	// RefundFailed indicates the provider rejected or lost the refund.
	RefundFailed
)

func getRefundStatusStrings() map[RefundStatus]string {
	return map[RefundStatus]string{
		RefundUnknown:    "Unknown",
		RefundProcessing: "Processing",
		RefundSucceeded:  "Succeeded",
		RefundFailed:     "Failed",
	}
}

func getValidRefundStatusStrings() map[RefundStatus]string {
	//nolint:exhaustive // RefundUnknown is intentionally excluded as it's invalid
	return map[RefundStatus]string{
		RefundProcessing: "Processing",
		RefundSucceeded:  "Succeeded",
		RefundFailed:     "Failed",
	}
}

// Validate checks if the RefundStatus value is valid.
func (s RefundStatus) Validate() error {
	if _, ok := getValidRefundStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund status is invalid",
			fmt.Errorf("%d is not a valid refund status", s),
		)
	}
	return nil
}

// String returns the human-readable name of the refund status.
func (s RefundStatus) String() string {
	if str, ok := getRefundStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}
