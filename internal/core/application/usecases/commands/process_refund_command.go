package commands

import (
	"errors"
	"fmt"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

var (
	ErrProcessRefundCommandIsNotConstructed = errors.New(
		"ProcessRefundCommand must be created via NewProcessRefundCommand constructor",
	)
)

// ProcessRefundCommand represents a request to return captured funds to the
// customer, optionally allocating the amount to specific order items.
type ProcessRefundCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	amountCents int64
	reason      string
	items       []order.RefundItemRequest
	actor       string

	guard guard.ConstructorGuard
}

// NewProcessRefundCommand creates a command to refund part or all of an
// order's captured payment. The amount must be positive; items are optional
// and, when present, every quantity must be positive.
func NewProcessRefundCommand(
	orderID kernel.UUID,
	amountCents int64,
	reason string,
	items []order.RefundItemRequest,
	actor string,
) (ProcessRefundCommand, error) {
	cmd := ProcessRefundCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAmountCents(amountCents),
		cmd.setItems(items),
		cmd.setActor(actor),
	); err != nil {
		return ProcessRefundCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ProcessRefundCommand) Validate() error {
	return c.guard.Validate(ErrProcessRefundCommandIsNotConstructed)
}

// OrderID returns the order to refund against.
func (c ProcessRefundCommand) OrderID() kernel.UUID {
	return c.orderID
}

// AmountCents returns the amount to refund, in cents.
func (c ProcessRefundCommand) AmountCents() int64 {
	return c.amountCents
}

// Reason returns the caller-supplied reason, may be empty.
func (c ProcessRefundCommand) Reason() string {
	return c.reason
}

// Items returns the optional per-item allocation requests.
func (c ProcessRefundCommand) Items() []order.RefundItemRequest {
	return append([]order.RefundItemRequest(nil), c.items...)
}

// Actor returns who requested the refund.
func (c ProcessRefundCommand) Actor() string {
	return c.actor
}

func (c *ProcessRefundCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ProcessRefundCommand) setAmountCents(amountCents int64) error {
	if amountCents <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"amountCents", fmt.Errorf("%d is not greater than 0", amountCents))
	}
	c.amountCents = amountCents
	return nil
}

func (c *ProcessRefundCommand) setItems(items []order.RefundItemRequest) error {
	for _, item := range items {
		if err := item.OrderItemID.Validate(); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause(
				"quantity", fmt.Errorf("%d is not greater than 0", item.Quantity))
		}
	}
	c.items = append([]order.RefundItemRequest(nil), items...)
	return nil
}

func (c *ProcessRefundCommand) setActor(actor string) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}
