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
	ErrCreateFulfillmentCommandIsNotConstructed = errors.New(
		"CreateFulfillmentCommand must be created via NewCreateFulfillmentCommand constructor",
	)
)

// FulfillmentOptions carries optional carrier features for a fulfillment.
type FulfillmentOptions struct {
	Insurance       bool
	Signature       bool
	ValidateAddress bool
}

// CreateFulfillmentCommand represents a request to ship some or all of an
// order's items: buy a carrier label and record the resulting shipment.
//
// Example:
//
//	items := []order.FulfillmentRequest{{OrderItemID: itemID, Quantity: 2}}
//	cmd, err := NewCreateFulfillmentCommand(orderID, items, "usps", "Priority",
//	    FulfillmentOptions{}, "admin-7")
//	if err != nil {
//	    return fmt.Errorf("invalid fulfillment: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to fulfill: %w", err)
//	}
type CreateFulfillmentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	items   []order.FulfillmentRequest
	carrier string
	service string
	options FulfillmentOptions
	actor   string

	guard guard.ConstructorGuard
}

// NewCreateFulfillmentCommand creates a command to fulfill order items.
// Validates that at least one item is requested, every quantity is positive,
// and the carrier/service pair is named.
func NewCreateFulfillmentCommand(
	orderID kernel.UUID,
	items []order.FulfillmentRequest,
	carrier, service string,
	options FulfillmentOptions,
	actor string,
) (CreateFulfillmentCommand, error) {
	cmd := CreateFulfillmentCommand{
		options: options,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setItems(items),
		cmd.setCarrier(carrier),
		cmd.setService(service),
		cmd.setActor(actor),
	); err != nil {
		return CreateFulfillmentCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateFulfillmentCommand) Validate() error {
	return c.guard.Validate(ErrCreateFulfillmentCommandIsNotConstructed)
}

// OrderID returns the order to fulfill.
func (c CreateFulfillmentCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Items returns the requested item quantities.
func (c CreateFulfillmentCommand) Items() []order.FulfillmentRequest {
	return append([]order.FulfillmentRequest(nil), c.items...)
}

// Carrier returns the chosen carrier.
func (c CreateFulfillmentCommand) Carrier() string {
	return c.carrier
}

// Service returns the chosen carrier service level.
func (c CreateFulfillmentCommand) Service() string {
	return c.service
}

// Options returns the optional carrier features.
func (c CreateFulfillmentCommand) Options() FulfillmentOptions {
	return c.options
}

// Actor returns who requested the fulfillment.
func (c CreateFulfillmentCommand) Actor() string {
	return c.actor
}

func (c *CreateFulfillmentCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateFulfillmentCommand) setItems(items []order.FulfillmentRequest) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if err := item.OrderItemID.Validate(); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause(
				"quantity", fmt.Errorf("%d is not greater than 0", item.Quantity))
		}
	}
	c.items = append([]order.FulfillmentRequest(nil), items...)
	return nil
}

func (c *CreateFulfillmentCommand) setCarrier(carrier string) error {
	if carrier == "" {
		return errs.NewValueIsRequiredError("carrier")
	}
	c.carrier = carrier
	return nil
}

func (c *CreateFulfillmentCommand) setService(service string) error {
	if service == "" {
		return errs.NewValueIsRequiredError("service")
	}
	c.service = service
	return nil
}

func (c *CreateFulfillmentCommand) setActor(actor string) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}
