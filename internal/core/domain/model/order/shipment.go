package order

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrShipmentIsNotConstructed is returned when a Shipment instance was not
// created through NewShipment or RestoreShipment.
var ErrShipmentIsNotConstructed = errors.New(
	"Shipment must be created via NewShipment or RestoreShipment constructor")

// ShipmentItem allocates a quantity of one order item to a shipment.
type ShipmentItem struct {
	OrderItemID kernel.UUID
	Quantity    int
}

// TrackingEvent is one carrier tracking update. Events are immutable and
// exposed newest-first on read. ID is assigned when the event enters the
// history; carrier feeds carry no stable event identifier of their own.
type TrackingEvent struct {
	ID          kernel.UUID
	Status      ShipmentStatus
	Description string
	Location    string
	OccurredAt  time.Time
}

// Shipment is one physical package covering a subset of the order's items.
// It owns its allocated item quantities and an ordered tracking history.
type Shipment struct {
	id                kernel.UUID
	carrier           string
	service           string
	trackingNumber    string
	labelURL          string
	cost              kernel.Money
	status            ShipmentStatus
	fromAddress       kernel.Address
	toAddress         kernel.Address
	estimatedDelivery *time.Time
	actualDelivery    *time.Time
	items             []ShipmentItem
	events            []TrackingEvent

	isConstructed bool
}

// NewShipment creates a shipment in LabelCreated status from a purchased
// carrier label. Every allocated quantity must be positive.
func NewShipment(
	id kernel.UUID,
	carrier, service, trackingNumber, labelURL string,
	cost kernel.Money,
	from, to kernel.Address,
	estimatedDelivery *time.Time,
	items []ShipmentItem,
) (*Shipment, error) {
	s := &Shipment{
		status:            LabelCreated,
		estimatedDelivery: estimatedDelivery,
		isConstructed:     true,
	}

	if err := errors.Join(
		s.setID(id),
		s.setCarrier(carrier),
		s.setService(service),
		s.setTrackingNumber(trackingNumber),
		s.setCost(cost),
		s.setAddresses(from, to),
		s.setItems(items),
	); err != nil {
		return nil, err
	}

	s.labelURL = labelURL
	return s, nil
}

// RestoreShipment reconstructs a shipment from persistence with its status,
// delivery timestamps and tracking history.
func RestoreShipment(
	id kernel.UUID,
	carrier, service, trackingNumber, labelURL string,
	cost kernel.Money,
	from, to kernel.Address,
	status ShipmentStatus,
	estimatedDelivery, actualDelivery *time.Time,
	items []ShipmentItem,
	events []TrackingEvent,
) (*Shipment, error) {
	s, err := NewShipment(id, carrier, service, trackingNumber, labelURL, cost, from, to, estimatedDelivery, items)
	if err != nil {
		return nil, err
	}
	if err = status.Validate(); err != nil {
		return nil, err
	}

	s.status = status
	s.actualDelivery = actualDelivery
	s.events = append(s.events, events...)
	s.sortEvents()
	return s, nil
}

// Validate ensures the Shipment instance was properly constructed.
func (s *Shipment) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrShipmentIsNotConstructed
	}
	return nil
}

// ID returns the shipment's unique identifier.
func (s *Shipment) ID() kernel.UUID {
	return s.id
}

// Carrier returns the carrier name, e.g. "usps".
func (s *Shipment) Carrier() string {
	return s.carrier
}

// Service returns the carrier service level, e.g. "Priority".
func (s *Shipment) Service() string {
	return s.service
}

// TrackingNumber returns the carrier tracking number.
func (s *Shipment) TrackingNumber() string {
	return s.trackingNumber
}

// LabelURL returns the purchased label download URL.
func (s *Shipment) LabelURL() string {
	return s.labelURL
}

// Cost returns the label cost.
func (s *Shipment) Cost() kernel.Money {
	return s.cost
}

// Status returns the current shipment status.
func (s *Shipment) Status() ShipmentStatus {
	return s.status
}

// FromAddress returns the origin address.
func (s *Shipment) FromAddress() kernel.Address {
	return s.fromAddress
}

// ToAddress returns the destination address.
func (s *Shipment) ToAddress() kernel.Address {
	return s.toAddress
}

// EstimatedDelivery returns the carrier's delivery estimate, nil if unknown.
func (s *Shipment) EstimatedDelivery() *time.Time {
	return s.estimatedDelivery
}

// ActualDelivery returns when the shipment was delivered, nil if undelivered.
func (s *Shipment) ActualDelivery() *time.Time {
	return s.actualDelivery
}

// Items returns the allocated item quantities.
func (s *Shipment) Items() []ShipmentItem {
	return append([]ShipmentItem(nil), s.items...)
}

// Events returns the tracking history, newest first.
func (s *Shipment) Events() []TrackingEvent {
	return append([]TrackingEvent(nil), s.events...)
}

// ApplyTrackingUpdate appends a tracking event and moves the shipment to the
// event's status. Carriers resend the full history on webhooks and polls, so
// an event already in the history is skipped. A Delivered event records the
// actual delivery time. Updates on cancelled shipments are rejected.
func (s *Shipment) ApplyTrackingUpdate(event TrackingEvent) error {
	if err := event.Status.Validate(); err != nil {
		return err
	}
	if s.status == ShipmentCancelled {
		return errs.NewStateConflictErrorWithCause(
			"shipment is cancelled",
			fmt.Errorf("tracking update %s rejected", event.Status),
		)
	}
	if s.hasEvent(event) {
		return nil
	}

	event.ID = kernel.NewUUID()
	s.events = append(s.events, event)
	s.sortEvents()
	s.status = event.Status
	if event.Status == ShipmentDelivered {
		at := event.OccurredAt
		s.actualDelivery = &at
	}
	return nil
}

// Cancel marks the shipment cancelled. Only shipments not yet handed to the
// carrier can be cancelled.
func (s *Shipment) Cancel() error {
	if !s.status.IsCancellable() {
		return errs.NewStateConflictErrorWithCause(
			"shipment cannot be cancelled",
			fmt.Errorf("%s is not a cancellable status", s.status),
		)
	}
	s.status = ShipmentCancelled
	return nil
}

// hasEvent reports whether an identical event is already recorded. Identity
// is content-based: the same scan resent by the carrier matches on status,
// timestamp, description and location.
func (s *Shipment) hasEvent(event TrackingEvent) bool {
	for _, e := range s.events {
		if e.Status == event.Status &&
			e.OccurredAt.Equal(event.OccurredAt) &&
			e.Description == event.Description &&
			e.Location == event.Location {
			return true
		}
	}
	return false
}

// sortEvents keeps the tracking history ordered newest first.
func (s *Shipment) sortEvents() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].OccurredAt.After(s.events[j].OccurredAt)
	})
}

func (s *Shipment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Shipment) setCarrier(carrier string) error {
	if carrier == "" {
		return errs.NewValueIsRequiredError("carrier")
	}
	s.carrier = carrier
	return nil
}

func (s *Shipment) setService(service string) error {
	if service == "" {
		return errs.NewValueIsRequiredError("service")
	}
	s.service = service
	return nil
}

func (s *Shipment) setTrackingNumber(trackingNumber string) error {
	if trackingNumber == "" {
		return errs.NewValueIsRequiredError("trackingNumber")
	}
	s.trackingNumber = trackingNumber
	return nil
}

func (s *Shipment) setCost(cost kernel.Money) error {
	if err := cost.Validate(); err != nil {
		return err
	}
	s.cost = cost
	return nil
}

func (s *Shipment) setAddresses(from, to kernel.Address) error {
	if err := from.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("fromAddress", err)
	}
	if err := to.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("toAddress", err)
	}
	s.fromAddress = from
	s.toAddress = to
	return nil
}

func (s *Shipment) setItems(items []ShipmentItem) error {
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
	s.items = append([]ShipmentItem(nil), items...)
	return nil
}
