package order

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through the NewOrder or RestoreOrder factory methods.
var ErrOrderIsNotConstructed = errors.New(
	"Order must be created via NewOrder or RestoreOrder constructor")

// FulfillmentRequest names an order item and the quantity to ship.
type FulfillmentRequest struct {
	OrderItemID kernel.UUID
	Quantity    int
}

// Order is the aggregate root of the order-management core. It owns its line
// items, payments, shipments and refunds; they are created and destroyed with
// the order and never mutated from outside the aggregate.
//
// Order follows these invariants:
//   - For every item: 0 ≤ fulfilledQty ≤ quantity and 0 ≤ refundedQty ≤ quantity
//   - For every payment: capturedCents − refundedCents ≥ 0
//   - paymentStatus and fulfillmentStatus are derived from child state; the
//     only direct transition callers may request is Cancelled
//   - Delivered orders can no longer be cancelled
//
// All mutating methods validate their preconditions before touching any state,
// so a failed call leaves the aggregate unchanged.
type Order struct {
	id                kernel.UUID
	number            string
	currency          string
	customerName      string
	customerEmail     string
	paymentStatus     PaymentStatus
	fulfillmentStatus FulfillmentStatus
	grandTotal        kernel.Money
	billingAddress    kernel.Address
	shippingAddress   kernel.Address
	cancelReason      string
	cancelledAt       *time.Time
	tags              []string
	notes             string
	createdAt         time.Time
	updatedAt         time.Time

	items     []*OrderItem
	payments  []*Payment
	shipments []*Shipment
	refunds   []*Refund

	isConstructed bool
}

// NewOrder creates an order in its initial state: paymentStatus Pending,
// fulfillmentStatus Pending, nothing shipped or refunded. Orders are created
// by the storefront's checkout, which is outside this core; the orchestration
// layer governs everything after this point.
//
// Parameters:
//   - id: Unique identifier for the order
//   - number: Externally assigned order number, e.g. "SF-1042" (required)
//   - currency: ISO 4217 currency code (required)
//   - customerName, customerEmail: Customer reference (required)
//   - grandTotal: Order total in cents
//   - billing, shipping: Validated addresses
//   - items: At least one line item
//   - tags, notes: Free-form metadata
//   - createdAt: Creation timestamp
func NewOrder(
	id kernel.UUID,
	number, currency, customerName, customerEmail string,
	grandTotal kernel.Money,
	billing, shipping kernel.Address,
	items []*OrderItem,
	tags []string,
	notes string,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		paymentStatus:     PaymentPending,
		fulfillmentStatus: FulfillmentPending,
		tags:              append([]string(nil), tags...),
		notes:             notes,
		createdAt:         createdAt,
		updatedAt:         createdAt,
		isConstructed:     true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setCurrency(currency),
		o.setCustomer(customerName, customerEmail),
		o.setGrandTotal(grandTotal),
		o.setAddresses(billing, shipping),
		o.setItems(items),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs the full aggregate from persistence.
// Child entities must already be restored through their own Restore
// constructors; statuses must be valid.
func RestoreOrder(
	id kernel.UUID,
	number, currency, customerName, customerEmail string,
	paymentStatus PaymentStatus,
	fulfillmentStatus FulfillmentStatus,
	grandTotal kernel.Money,
	billing, shipping kernel.Address,
	cancelReason string,
	cancelledAt *time.Time,
	tags []string,
	notes string,
	createdAt, updatedAt time.Time,
	items []*OrderItem,
	payments []*Payment,
	shipments []*Shipment,
	refunds []*Refund,
) (*Order, error) {
	o, err := NewOrder(id, number, currency, customerName, customerEmail,
		grandTotal, billing, shipping, items, tags, notes, createdAt)
	if err != nil {
		return nil, err
	}

	if err = errors.Join(paymentStatus.Validate(), fulfillmentStatus.Validate()); err != nil {
		return nil, err
	}

	o.paymentStatus = paymentStatus
	o.fulfillmentStatus = fulfillmentStatus
	o.cancelReason = cancelReason
	o.cancelledAt = cancelledAt
	o.updatedAt = updatedAt
	o.payments = payments
	o.shipments = shipments
	o.refunds = refunds
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
// Called when reconstructing orders from persistence to ensure data integrity.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Number returns the externally assigned order number.
func (o *Order) Number() string {
	return o.number
}

// Currency returns the ISO 4217 currency code.
func (o *Order) Currency() string {
	return o.currency
}

// CustomerName returns the customer's display name.
func (o *Order) CustomerName() string {
	return o.customerName
}

// CustomerEmail returns the customer's email address.
func (o *Order) CustomerEmail() string {
	return o.customerEmail
}

// PaymentStatus returns the derived order-level payment status.
func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

// FulfillmentStatus returns the derived order-level fulfillment status.
func (o *Order) FulfillmentStatus() FulfillmentStatus {
	return o.fulfillmentStatus
}

// GrandTotal returns the order total.
func (o *Order) GrandTotal() kernel.Money {
	return o.grandTotal
}

// BillingAddress returns the billing address.
func (o *Order) BillingAddress() kernel.Address {
	return o.billingAddress
}

// ShippingAddress returns the shipping address.
func (o *Order) ShippingAddress() kernel.Address {
	return o.shippingAddress
}

// CancelReason returns the cancellation reason, empty if not cancelled.
func (o *Order) CancelReason() string {
	return o.cancelReason
}

// CancelledAt returns when the order was cancelled, nil if not cancelled.
func (o *Order) CancelledAt() *time.Time {
	return o.cancelledAt
}

// Tags returns the order's tags.
func (o *Order) Tags() []string {
	return append([]string(nil), o.tags...)
}

// Notes returns the free-form order notes.
func (o *Order) Notes() string {
	return o.notes
}

// CreatedAt returns when the order was created.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns when the order was last mutated.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Items returns the order's line items.
func (o *Order) Items() []*OrderItem {
	return append([]*OrderItem(nil), o.items...)
}

// Payments returns the order's payments.
func (o *Order) Payments() []*Payment {
	return append([]*Payment(nil), o.payments...)
}

// Shipments returns the order's shipments.
func (o *Order) Shipments() []*Shipment {
	return append([]*Shipment(nil), o.shipments...)
}

// Refunds returns the order's refunds.
func (o *Order) Refunds() []*Refund {
	return append([]*Refund(nil), o.refunds...)
}

// Item returns the line item with the given ID.
func (o *Order) Item(id kernel.UUID) (*OrderItem, error) {
	for _, item := range o.items {
		if item.ID().IsEqual(id) {
			return item, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("orderItem", id.String())
}

// Shipment returns the shipment with the given ID.
func (o *Order) Shipment(id kernel.UUID) (*Shipment, error) {
	for _, s := range o.shipments {
		if s.ID().IsEqual(id) {
			return s, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("shipment", id.String())
}

// AddPayment attaches an authorized payment to the order and derives the
// order-level payment status.
func (o *Order) AddPayment(payment *Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	o.payments = append(o.payments, payment)
	o.recomputePaymentStatus()
	o.touch(payment.CapturedAt())
	return nil
}

// AuthorizedPayment returns the first payment in Authorized status.
// Fails with a StateConflictError when the order has none.
func (o *Order) AuthorizedPayment() (*Payment, error) {
	for _, p := range o.payments {
		if p.Status() == PaymentAuthorized {
			return p, nil
		}
	}
	return nil, errs.NewStateConflictError("no authorized payment found")
}

// RefundablePayment returns the first payment with captured funds remaining.
// Fails with a StateConflictError when the order has none.
func (o *Order) RefundablePayment() (*Payment, error) {
	for _, p := range o.payments {
		if p.Status().ValidateRefundable() == nil {
			return p, nil
		}
	}
	return nil, errs.NewStateConflictError("no captured payment found")
}

// CapturePayment captures the given payment for the given amount and derives
// the order-level payment status. A zero-value amount is replaced by the full
// authorized amount by the caller; the aggregate requires an explicit amount.
func (o *Order) CapturePayment(paymentID kernel.UUID, amount kernel.Money, at time.Time) error {
	payment, err := o.payment(paymentID)
	if err != nil {
		return err
	}
	if err = payment.Capture(amount, at); err != nil {
		return err
	}

	o.recomputePaymentStatus()
	o.touch(&at)
	return nil
}

// Cancel cancels the order: every shipment not yet handed to the carrier is
// cancelled locally and the fulfillment status becomes Cancelled.
//
// Fails with a StateConflictError if the order has been delivered. Voiding
// authorized payments against the provider is the orchestration layer's
// best-effort concern and is not part of the local transition.
func (o *Order) Cancel(reason string, at time.Time) error {
	newStatus, err := o.fulfillmentStatus.Cancel()
	if err != nil {
		return err
	}

	for _, s := range o.shipments {
		if s.Status().IsCancellable() {
			if err = s.Cancel(); err != nil {
				return err
			}
		}
	}

	o.fulfillmentStatus = newStatus
	o.cancelReason = reason
	o.cancelledAt = &at
	o.touch(&at)
	return nil
}

// MarkPaymentVoided records a successful provider void for the given payment.
// Used during cancellation; failures to void are logged by the caller and do
// not block the local Cancelled transition.
func (o *Order) MarkPaymentVoided(paymentID kernel.UUID) error {
	payment, err := o.payment(paymentID)
	if err != nil {
		return err
	}
	if err = payment.Void(); err != nil {
		return err
	}
	o.recomputePaymentStatus()
	return nil
}

// ValidateFulfillment checks a fulfillment request without mutating anything.
// All requested items are validated before any external call or write; the
// order must be paid and every requested quantity must be available.
func (o *Order) ValidateFulfillment(requests []FulfillmentRequest) error {
	if o.paymentStatus != PaymentCaptured {
		return errs.NewStateConflictError("order must be paid before fulfillment")
	}
	if len(requests) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	for _, req := range requests {
		item, err := o.Item(req.OrderItemID)
		if err != nil {
			return err
		}
		if err = item.ValidateFulfill(req.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Fulfill attaches a shipment created from a purchased label, increments the
// fulfilled quantity of every requested item, and derives the order-level
// fulfillment status: Fulfilled once every ordered quantity has shipped,
// PartiallyFulfilled otherwise.
//
// The caller persists the resulting aggregate state in one transaction;
// Fulfill itself re-validates the request so a stale shipment can never
// over-fulfill an item.
func (o *Order) Fulfill(shipment *Shipment, requests []FulfillmentRequest, at time.Time) error {
	if err := shipment.Validate(); err != nil {
		return err
	}
	if err := o.ValidateFulfillment(requests); err != nil {
		return err
	}

	for _, req := range requests {
		item, err := o.Item(req.OrderItemID)
		if err != nil {
			return err
		}
		if err = item.Fulfill(req.Quantity); err != nil {
			return err
		}
	}

	o.shipments = append(o.shipments, shipment)
	o.recomputeFulfillmentFromItems()
	o.touch(&at)
	return nil
}

// ValidateRefund locates the refundable payment and checks the amount against
// its remaining balance, without mutating anything. Checked before any
// provider call.
func (o *Order) ValidateRefund(amount kernel.Money) (*Payment, error) {
	payment, err := o.RefundablePayment()
	if err != nil {
		return nil, err
	}
	if err = payment.ValidateRefund(amount); err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplyRefund attaches a provider-confirmed refund: the named items'
// refunded quantities and the payment's refunded balance are incremented,
// and the order-level payment status is re-derived across all payments.
func (o *Order) ApplyRefund(paymentID kernel.UUID, refund *Refund, at time.Time) error {
	if err := refund.Validate(); err != nil {
		return err
	}

	payment, err := o.payment(paymentID)
	if err != nil {
		return err
	}
	if err = payment.ValidateRefund(refund.Amount()); err != nil {
		return err
	}

	for _, item := range refund.Items() {
		orderItem, itemErr := o.Item(item.OrderItemID)
		if itemErr != nil {
			return itemErr
		}
		if itemErr = orderItem.Refund(item.Quantity); itemErr != nil {
			return itemErr
		}
	}

	if err = payment.ApplyRefund(refund.Amount()); err != nil {
		return err
	}

	o.refunds = append(o.refunds, refund)
	o.recomputePaymentStatus()
	o.touch(&at)
	return nil
}

// ApplyTrackingUpdate forwards a tracking event to the named shipment and
// derives the order-level fulfillment status: Delivered once every shipment
// is delivered, PartiallyDelivered while at least one is.
func (o *Order) ApplyTrackingUpdate(shipmentID kernel.UUID, event TrackingEvent) error {
	shipment, err := o.Shipment(shipmentID)
	if err != nil {
		return err
	}
	if err = shipment.ApplyTrackingUpdate(event); err != nil {
		return err
	}

	o.recomputeDeliveryStatus()
	o.touch(&event.OccurredAt)
	return nil
}

// recomputePaymentStatus derives the order-level payment status from all
// payments: any refund activity wins over Captured, which wins over
// Authorized; a lone voided payment marks the order Voided.
func (o *Order) recomputePaymentStatus() {
	var (
		hasAuthorized bool
		hasCaptured   bool
		hasPartial    bool
		allRefunded   = len(o.payments) > 0
		allVoided     = len(o.payments) > 0
	)

	for _, p := range o.payments {
		switch p.Status() {
		case PaymentRefunded:
			allVoided = false
		case PaymentVoided:
			allRefunded = false
		case PaymentAuthorized:
			hasAuthorized = true
			allRefunded, allVoided = false, false
		case PaymentCaptured:
			hasCaptured = true
			allRefunded, allVoided = false, false
		case PaymentPartiallyRefunded:
			hasPartial = true
			allRefunded, allVoided = false, false
		default:
			allRefunded, allVoided = false, false
		}
	}

	switch {
	case allRefunded:
		o.paymentStatus = PaymentRefunded
	case hasPartial:
		o.paymentStatus = PaymentPartiallyRefunded
	case hasCaptured:
		o.paymentStatus = PaymentCaptured
	case hasAuthorized:
		o.paymentStatus = PaymentAuthorized
	case allVoided:
		o.paymentStatus = PaymentVoided
	default:
		o.paymentStatus = PaymentPending
	}
}

// recomputeFulfillmentFromItems derives Fulfilled/PartiallyFulfilled from the
// item quantity counters.
func (o *Order) recomputeFulfillmentFromItems() {
	var ordered, fulfilled int
	for _, item := range o.items {
		ordered += item.Quantity()
		fulfilled += item.FulfilledQty()
	}

	switch {
	case fulfilled >= ordered:
		o.fulfillmentStatus = Fulfilled
	case fulfilled > 0:
		o.fulfillmentStatus = PartiallyFulfilled
	default:
		o.fulfillmentStatus = FulfillmentPending
	}
}

// recomputeDeliveryStatus derives Delivered/PartiallyDelivered from the
// shipments' tracking state. Cancelled shipments do not count against
// delivery completeness.
func (o *Order) recomputeDeliveryStatus() {
	var delivered, undelivered int
	for _, s := range o.shipments {
		switch s.Status() {
		case ShipmentDelivered:
			delivered++
		case ShipmentCancelled:
		default:
			undelivered++
		}
	}

	if delivered == 0 {
		return
	}
	if undelivered == 0 {
		o.fulfillmentStatus = Delivered
	} else {
		o.fulfillmentStatus = PartiallyDelivered
	}
}

func (o *Order) payment(id kernel.UUID) (*Payment, error) {
	for _, p := range o.payments {
		if p.ID().IsEqual(id) {
			return p, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("payment", id.String())
}

// touch advances updatedAt, never moving it backwards.
func (o *Order) touch(at *time.Time) {
	if at != nil && at.After(o.updatedAt) {
		o.updatedAt = *at
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	if number == "" {
		return errs.NewValueIsRequiredError("number")
	}
	o.number = number
	return nil
}

func (o *Order) setCurrency(currency string) error {
	if currency == "" {
		return errs.NewValueIsRequiredError("currency")
	}
	o.currency = currency
	return nil
}

func (o *Order) setCustomer(name, email string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("customerName")
	}
	if email == "" {
		return errs.NewValueIsRequiredError("customerEmail")
	}
	o.customerName = name
	o.customerEmail = email
	return nil
}

func (o *Order) setGrandTotal(grandTotal kernel.Money) error {
	if err := grandTotal.Validate(); err != nil {
		return err
	}
	o.grandTotal = grandTotal
	return nil
}

func (o *Order) setAddresses(billing, shipping kernel.Address) error {
	if err := billing.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("billingAddress", err)
	}
	if err := shipping.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("shippingAddress", err)
	}
	o.billingAddress = billing
	o.shippingAddress = shipping
	return nil
}

func (o *Order) setItems(items []*OrderItem) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	o.items = append([]*OrderItem(nil), items...)
	return nil
}

// String returns a short human-readable order description for logs.
func (o *Order) String() string {
	return fmt.Sprintf("order %s (%s/%s)", o.number, o.paymentStatus, o.fulfillmentStatus)
}
