package commands

import (
	"errors"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

var (
	ErrCancelOrderCommandIsNotConstructed = errors.New(
		"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
	)
)

// CancelOrderCommand represents a request to cancel an order. Cancellation is
// authoritative for local state and best-effort for provider side effects:
// authorized payments are voided if the gateway cooperates, but a failed void
// never blocks the cancellation itself.
//
// Example:
//
//	cmd, err := NewCancelOrderCommand(orderID, "customer request", "admin-7")
//	if err != nil {
//	    return fmt.Errorf("invalid cancellation: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to cancel order: %w", err)
//	}
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	reason  string
	actor   string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a command to cancel an order.
// Validates that the order ID is valid and reason and actor are present.
func NewCancelOrderCommand(orderID kernel.UUID, reason, actor string) (CancelOrderCommand, error) {
	cmd := CancelOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setReason(reason),
		cmd.setActor(actor),
	); err != nil {
		return CancelOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// OrderID returns the order to cancel.
func (c CancelOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Reason returns the cancellation reason.
func (c CancelOrderCommand) Reason() string {
	return c.reason
}

// Actor returns who requested the cancellation.
func (c CancelOrderCommand) Actor() string {
	return c.actor
}

func (c *CancelOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CancelOrderCommand) setReason(reason string) error {
	if reason == "" {
		return errs.NewValueIsRequiredError("reason")
	}
	c.reason = reason
	return nil
}

func (c *CancelOrderCommand) setActor(actor string) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}
