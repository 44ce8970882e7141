package order

import (
	"errors"
	"fmt"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrRefundIsNotConstructed is returned when a Refund instance was not
// created through NewRefund or RestoreRefund.
var ErrRefundIsNotConstructed = errors.New(
	"Refund must be created via NewRefund or RestoreRefund constructor")

// RefundItem allocates a quantity of one order item and a share of the
// refund amount to that item.
type RefundItem struct {
	OrderItemID kernel.UUID
	Quantity    int
	Amount      kernel.Money
}

// Refund records one provider refund against the order: the total amount,
// the provider result, and optionally the items the money is allocated to.
//
// When items are named, the total amount is divided equally across them
// regardless of their individual prices. That mirrors the established
// storefront behavior; proportional-by-price allocation was considered and
// deliberately not introduced without product sign-off.
type Refund struct {
	id               kernel.UUID
	amount           kernel.Money
	reason           string
	status           RefundStatus
	provider         string
	providerRefundID string
	items            []RefundItem

	isConstructed bool
}

// RefundItemRequest names an order item and quantity to allocate a refund to.
type RefundItemRequest struct {
	OrderItemID kernel.UUID
	Quantity    int
}

// NewRefund creates a refund with the given provider result. When item
// requests are supplied, each named item receives amount/len(items) cents;
// integer division, any sub-cent remainder stays unallocated.
func NewRefund(
	id kernel.UUID,
	amount kernel.Money,
	reason string,
	status RefundStatus,
	provider, providerRefundID string,
	itemRequests []RefundItemRequest,
) (*Refund, error) {
	r := &Refund{
		reason:        reason,
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setAmount(amount),
		r.setStatus(status),
		r.setProvider(provider),
		r.setProviderRefundID(providerRefundID),
	); err != nil {
		return nil, err
	}

	if len(itemRequests) > 0 {
		perItem, err := kernel.NewMoney(amount.Cents() / int64(len(itemRequests)))
		if err != nil {
			return nil, err
		}
		for _, req := range itemRequests {
			if err = req.OrderItemID.Validate(); err != nil {
				return nil, err
			}
			if req.Quantity <= 0 {
				return nil, errs.NewValueIsInvalidErrorWithCause(
					"quantity", fmt.Errorf("%d is not greater than 0", req.Quantity))
			}
			r.items = append(r.items, RefundItem{
				OrderItemID: req.OrderItemID,
				Quantity:    req.Quantity,
				Amount:      perItem,
			})
		}
	}

	return r, nil
}

// RestoreRefund reconstructs a refund from persistence with its stored
// item allocations.
func RestoreRefund(
	id kernel.UUID,
	amount kernel.Money,
	reason string,
	status RefundStatus,
	provider, providerRefundID string,
	items []RefundItem,
) (*Refund, error) {
	r, err := NewRefund(id, amount, reason, status, provider, providerRefundID, nil)
	if err != nil {
		return nil, err
	}
	r.items = append(r.items, items...)
	return r, nil
}

// Validate ensures the Refund instance was properly constructed.
func (r *Refund) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRefundIsNotConstructed
	}
	return nil
}

// ID returns the refund's unique identifier.
func (r *Refund) ID() kernel.UUID {
	return r.id
}

// Amount returns the total refunded amount.
func (r *Refund) Amount() kernel.Money {
	return r.amount
}

// Reason returns the caller-supplied refund reason, may be empty.
func (r *Refund) Reason() string {
	return r.reason
}

// Status returns the provider-side refund status.
func (r *Refund) Status() RefundStatus {
	return r.status
}

// Provider returns the external provider name.
func (r *Refund) Provider() string {
	return r.provider
}

// ProviderRefundID returns the provider's refund identifier.
func (r *Refund) ProviderRefundID() string {
	return r.providerRefundID
}

// Items returns the per-item allocations, empty for order-level refunds.
func (r *Refund) Items() []RefundItem {
	return append([]RefundItem(nil), r.items...)
}

func (r *Refund) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Refund) setAmount(amount kernel.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return errs.NewValueIsInvalidErrorWithCause(
			"amountCents", errors.New("refund amount must be greater than 0"))
	}
	r.amount = amount
	return nil
}

func (r *Refund) setStatus(status RefundStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	r.status = status
	return nil
}

func (r *Refund) setProvider(provider string) error {
	if provider == "" {
		return errs.NewValueIsRequiredError("provider")
	}
	r.provider = provider
	return nil
}

func (r *Refund) setProviderRefundID(providerRefundID string) error {
	if providerRefundID == "" {
		return errs.NewValueIsRequiredError("providerRefundID")
	}
	r.providerRefundID = providerRefundID
	return nil
}
