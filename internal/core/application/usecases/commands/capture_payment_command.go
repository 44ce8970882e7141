package commands

import (
	"errors"
	"fmt"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

var (
	ErrCapturePaymentCommandIsNotConstructed = errors.New(
		"CapturePaymentCommand must be created via NewCapturePaymentCommand constructor",
	)
)

// CapturePaymentCommand represents a request to capture an order's authorized
// payment. A nil amount captures the full authorized amount.
type CapturePaymentCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	amountCents *int64
	actor       string

	guard guard.ConstructorGuard
}

// NewCapturePaymentCommand creates a command to capture a payment.
// When amountCents is supplied it must be positive.
func NewCapturePaymentCommand(orderID kernel.UUID, amountCents *int64, actor string) (CapturePaymentCommand, error) {
	cmd := CapturePaymentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAmountCents(amountCents),
		cmd.setActor(actor),
	); err != nil {
		return CapturePaymentCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CapturePaymentCommand) Validate() error {
	return c.guard.Validate(ErrCapturePaymentCommandIsNotConstructed)
}

// OrderID returns the order whose payment should be captured.
func (c CapturePaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}

// AmountCents returns the requested capture amount, nil for the full
// authorized amount.
func (c CapturePaymentCommand) AmountCents() *int64 {
	return c.amountCents
}

// Actor returns who requested the capture.
func (c CapturePaymentCommand) Actor() string {
	return c.actor
}

func (c *CapturePaymentCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CapturePaymentCommand) setAmountCents(amountCents *int64) error {
	if amountCents != nil && *amountCents <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"amountCents", fmt.Errorf("%d is not greater than 0", *amountCents))
	}
	c.amountCents = amountCents
	return nil
}

func (c *CapturePaymentCommand) setActor(actor string) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}
