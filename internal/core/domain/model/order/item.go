package order

import (
	"errors"
	"fmt"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrOrderItemIsNotConstructed is returned when an OrderItem instance was not
// created through NewOrderItem or RestoreOrderItem.
var ErrOrderItemIsNotConstructed = errors.New(
	"OrderItem must be created via NewOrderItem or RestoreOrderItem constructor")

// OrderItem is a line item within an order. It tracks how much of the ordered
// quantity has been fulfilled (shipped) and refunded.
//
// OrderItem maintains these invariants before any mutation:
//   - 0 ≤ fulfilledQty ≤ quantity
//   - 0 ≤ refundedQty ≤ quantity
type OrderItem struct {
	id           kernel.UUID
	name         string
	quantity     int
	price        kernel.Money
	fulfilledQty int
	refundedQty  int

	isConstructed bool
}

// NewOrderItem creates a new line item with nothing fulfilled or refunded yet.
//
// Parameters:
//   - id: Unique identifier for the item (must be valid UUID)
//   - name: Display name of the product (required)
//   - quantity: Ordered quantity (must be positive)
//   - price: Unit price in cents
//
// Returns the created item, or a joined validation error.
func NewOrderItem(id kernel.UUID, name string, quantity int, price kernel.Money) (*OrderItem, error) {
	item := &OrderItem{isConstructed: true}

	if err := errors.Join(
		item.setID(id),
		item.setName(name),
		item.setQuantity(quantity),
		item.setPrice(price),
	); err != nil {
		return nil, err
	}

	return item, nil
}

// RestoreOrderItem reconstructs a line item from persistence, including its
// fulfillment and refund counters. The counters must already satisfy the
// item invariants; persistence corruption is reported as a validation error.
func RestoreOrderItem(
	id kernel.UUID, name string, quantity int, price kernel.Money, fulfilledQty, refundedQty int,
) (*OrderItem, error) {
	item, err := NewOrderItem(id, name, quantity, price)
	if err != nil {
		return nil, err
	}

	if fulfilledQty < 0 || fulfilledQty > quantity {
		return nil, errs.NewValueIsOutOfRangeError("fulfilledQty", fulfilledQty, 0, quantity)
	}
	if refundedQty < 0 || refundedQty > quantity {
		return nil, errs.NewValueIsOutOfRangeError("refundedQty", refundedQty, 0, quantity)
	}

	item.fulfilledQty = fulfilledQty
	item.refundedQty = refundedQty
	return item, nil
}

// Validate ensures the OrderItem instance was properly constructed.
func (i *OrderItem) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrOrderItemIsNotConstructed
	}
	return nil
}

// ID returns the item's unique identifier.
func (i *OrderItem) ID() kernel.UUID {
	return i.id
}

// Name returns the product display name.
func (i *OrderItem) Name() string {
	return i.name
}

// Quantity returns the ordered quantity.
func (i *OrderItem) Quantity() int {
	return i.quantity
}

// Price returns the unit price.
func (i *OrderItem) Price() kernel.Money {
	return i.price
}

// FulfilledQty returns how many units have shipped.
func (i *OrderItem) FulfilledQty() int {
	return i.fulfilledQty
}

// RefundedQty returns how many units have been refunded.
func (i *OrderItem) RefundedQty() int {
	return i.refundedQty
}

// AvailableToFulfill returns how many units can still be shipped.
func (i *OrderItem) AvailableToFulfill() int {
	return i.quantity - i.fulfilledQty
}

// ValidateFulfill checks whether qty more units can be shipped without
// mutating the item. The error names the item and the available quantity.
func (i *OrderItem) ValidateFulfill(qty int) error {
	if qty <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"quantity", fmt.Errorf("%d is not greater than 0", qty))
	}
	if available := i.AvailableToFulfill(); qty > available {
		return errs.NewStateConflictErrorWithCause(
			fmt.Sprintf("cannot fulfill %d of item %q", qty, i.name),
			fmt.Errorf("only %d available", available),
		)
	}
	return nil
}

// Fulfill records qty more units as shipped.
// Fails with a StateConflictError if the quantity is not available.
func (i *OrderItem) Fulfill(qty int) error {
	if err := i.ValidateFulfill(qty); err != nil {
		return err
	}
	i.fulfilledQty += qty
	return nil
}

// ValidateRefundQty checks whether qty more units can be refunded without
// mutating the item.
func (i *OrderItem) ValidateRefundQty(qty int) error {
	if qty <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"quantity", fmt.Errorf("%d is not greater than 0", qty))
	}
	if i.refundedQty+qty > i.quantity {
		return errs.NewStateConflictErrorWithCause(
			fmt.Sprintf("cannot refund %d of item %q", qty, i.name),
			fmt.Errorf("only %d refundable", i.quantity-i.refundedQty),
		)
	}
	return nil
}

// Refund records qty more units as refunded.
// Fails with a StateConflictError if the refunded total would exceed the
// ordered quantity.
func (i *OrderItem) Refund(qty int) error {
	if err := i.ValidateRefundQty(qty); err != nil {
		return err
	}
	i.refundedQty += qty
	return nil
}

func (i *OrderItem) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.id = id
	return nil
}

func (i *OrderItem) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	i.name = name
	return nil
}

func (i *OrderItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *OrderItem) setPrice(price kernel.Money) error {
	if err := price.Validate(); err != nil {
		return err
	}
	i.price = price
	return nil
}
