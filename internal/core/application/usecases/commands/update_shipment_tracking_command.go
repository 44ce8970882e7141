package commands

import (
	"errors"

	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

var (
	ErrUpdateShipmentTrackingCommandIsNotConstructed = errors.New(
		"UpdateShipmentTrackingCommand must be created via NewUpdateShipmentTrackingCommand constructor",
	)
)

// UpdateShipmentTrackingCommand applies carrier tracking events to a
// shipment. It is issued by the background tracking refresh job and by
// carrier webhooks, never by admins directly.
type UpdateShipmentTrackingCommand struct { //nolint:recvcheck //using for validation
	shipmentID kernel.UUID
	events     []order.TrackingEvent
	actor      string
	actorType  audit.ActorType

	guard guard.ConstructorGuard
}

// NewUpdateShipmentTrackingCommand creates a command to record tracking
// events against a shipment. At least one event is required and every event
// must carry a valid status and timestamp.
func NewUpdateShipmentTrackingCommand(
	shipmentID kernel.UUID,
	events []order.TrackingEvent,
	actor string,
	actorType audit.ActorType,
) (UpdateShipmentTrackingCommand, error) {
	cmd := UpdateShipmentTrackingCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setShipmentID(shipmentID),
		cmd.setEvents(events),
		cmd.setActor(actor, actorType),
	); err != nil {
		return UpdateShipmentTrackingCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateShipmentTrackingCommand) Validate() error {
	return c.guard.Validate(ErrUpdateShipmentTrackingCommandIsNotConstructed)
}

// ShipmentID returns the shipment the events belong to.
func (c UpdateShipmentTrackingCommand) ShipmentID() kernel.UUID {
	return c.shipmentID
}

// Events returns the tracking events to apply.
func (c UpdateShipmentTrackingCommand) Events() []order.TrackingEvent {
	return append([]order.TrackingEvent(nil), c.events...)
}

// Actor returns the source of the update, e.g. a job or webhook name.
func (c UpdateShipmentTrackingCommand) Actor() string {
	return c.actor
}

// ActorType returns whether the update came from a job or a webhook.
func (c UpdateShipmentTrackingCommand) ActorType() audit.ActorType {
	return c.actorType
}

func (c *UpdateShipmentTrackingCommand) setShipmentID(shipmentID kernel.UUID) error {
	if err := shipmentID.Validate(); err != nil {
		return err
	}
	c.shipmentID = shipmentID
	return nil
}

func (c *UpdateShipmentTrackingCommand) setEvents(events []order.TrackingEvent) error {
	if len(events) == 0 {
		return errs.NewValueIsRequiredError("events")
	}
	for _, event := range events {
		if err := event.Status.Validate(); err != nil {
			return err
		}
		if event.OccurredAt.IsZero() {
			return errs.NewValueIsRequiredError("occurredAt")
		}
	}
	c.events = append([]order.TrackingEvent(nil), events...)
	return nil
}

func (c *UpdateShipmentTrackingCommand) setActor(actor string, actorType audit.ActorType) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	if actorType != audit.ActorSystem && actorType != audit.ActorWebhook {
		return errs.NewValueIsInvalidError("actorType")
	}
	c.actor = actor
	c.actorType = actorType
	return nil
}
