package order

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrPaymentIsNotConstructed is returned when a Payment instance was not
// created through NewPayment or RestorePayment.
var ErrPaymentIsNotConstructed = errors.New(
	"Payment must be created via NewPayment or RestorePayment constructor")

// Payment tracks one charge against the order's payment method: the
// authorized amount, what has been captured, and what has been refunded.
//
// Payment maintains the money-conservation invariant capturedCents − refundedCents ≥ 0;
// refunds are validated against the remaining balance before any mutation.
type Payment struct {
	id               kernel.UUID
	amount           kernel.Money
	captured         kernel.Money
	refunded         kernel.Money
	provider         string
	providerChargeID string
	status           PaymentStatus
	capturedAt       *time.Time

	isConstructed bool
}

// NewPayment creates a payment in Authorized status with nothing captured yet.
//
// Parameters:
//   - id: Unique identifier for the payment
//   - amount: The authorized amount
//   - provider: External provider name, e.g. "stripe" (required)
//   - providerChargeID: The provider's charge/intent identifier (required)
func NewPayment(id kernel.UUID, amount kernel.Money, provider, providerChargeID string) (*Payment, error) {
	zero, err := kernel.NewMoney(0)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		status:        PaymentAuthorized,
		captured:      zero,
		refunded:      zero,
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setAmount(amount),
		p.setProvider(provider),
		p.setProviderChargeID(providerChargeID),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// RestorePayment reconstructs a payment from persistence with its full
// capture/refund state. The status must be valid and the refunded amount
// must not exceed the captured amount.
func RestorePayment(
	id kernel.UUID,
	amount, captured, refunded kernel.Money,
	provider, providerChargeID string,
	status PaymentStatus,
	capturedAt *time.Time,
) (*Payment, error) {
	p, err := NewPayment(id, amount, provider, providerChargeID)
	if err != nil {
		return nil, err
	}
	if err = status.Validate(); err != nil {
		return nil, err
	}
	if refunded.GreaterThan(captured) {
		return nil, errs.NewValueIsOutOfRangeError(
			"refundedCents", refunded.Cents(), 0, captured.Cents())
	}

	p.captured = captured
	p.refunded = refunded
	p.status = status
	p.capturedAt = capturedAt
	return p, nil
}

// Validate ensures the Payment instance was properly constructed.
func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

// ID returns the payment's unique identifier.
func (p *Payment) ID() kernel.UUID {
	return p.id
}

// Amount returns the authorized amount.
func (p *Payment) Amount() kernel.Money {
	return p.amount
}

// Captured returns the captured amount.
func (p *Payment) Captured() kernel.Money {
	return p.captured
}

// Refunded returns the refunded amount.
func (p *Payment) Refunded() kernel.Money {
	return p.refunded
}

// Provider returns the external provider name.
func (p *Payment) Provider() string {
	return p.provider
}

// ProviderChargeID returns the provider's charge/intent identifier.
func (p *Payment) ProviderChargeID() string {
	return p.providerChargeID
}

// Status returns the current payment status.
func (p *Payment) Status() PaymentStatus {
	return p.status
}

// CapturedAt returns when the payment was captured, nil if not captured.
func (p *Payment) CapturedAt() *time.Time {
	return p.capturedAt
}

// AvailableToRefund returns the captured amount not yet refunded.
func (p *Payment) AvailableToRefund() (kernel.Money, error) {
	return p.captured.Subtract(p.refunded)
}

// Capture records a capture of the given amount at the given time.
//
// The payment must be in Authorized status and the amount must not exceed
// the authorized amount. On success the status becomes Captured.
func (p *Payment) Capture(amount kernel.Money, at time.Time) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.GreaterThan(p.amount) {
		return errs.NewStateConflictErrorWithCause(
			"capture amount exceeds authorized amount",
			fmt.Errorf("%s exceeds %s", amount, p.amount),
		)
	}

	newStatus, err := p.status.Capture()
	if err != nil {
		return err
	}

	p.status = newStatus
	p.captured = amount
	p.capturedAt = &at
	return nil
}

// Void cancels the authorization before capture.
func (p *Payment) Void() error {
	newStatus, err := p.status.Void()
	if err != nil {
		return err
	}
	p.status = newStatus
	return nil
}

// ValidateRefund checks whether the given amount can be refunded without
// mutating the payment. Checked before any provider call so that an
// over-refund never produces external side effects.
func (p *Payment) ValidateRefund(amount kernel.Money) error {
	if err := p.status.ValidateRefundable(); err != nil {
		return err
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return errs.NewValueIsInvalidErrorWithCause(
			"amountCents", errors.New("refund amount must be greater than 0"))
	}

	available, err := p.AvailableToRefund()
	if err != nil {
		return err
	}
	if amount.GreaterThan(available) {
		return errs.NewStateConflictErrorWithCause(
			"refund amount exceeds available balance",
			fmt.Errorf("%s exceeds %s", amount, available),
		)
	}
	return nil
}

// ApplyRefund records a provider-confirmed refund of the given amount.
// The status becomes Refunded once the refunded total reaches the captured
// total, PartiallyRefunded otherwise.
func (p *Payment) ApplyRefund(amount kernel.Money) error {
	if err := p.ValidateRefund(amount); err != nil {
		return err
	}

	refunded, err := p.refunded.Add(amount)
	if err != nil {
		return err
	}

	p.refunded = refunded
	if p.refunded.IsEqual(p.captured) {
		p.status = PaymentRefunded
	} else {
		p.status = PaymentPartiallyRefunded
	}
	return nil
}

func (p *Payment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Payment) setAmount(amount kernel.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	p.amount = amount
	return nil
}

func (p *Payment) setProvider(provider string) error {
	if provider == "" {
		return errs.NewValueIsRequiredError("provider")
	}
	p.provider = provider
	return nil
}

func (p *Payment) setProviderChargeID(providerChargeID string) error {
	if providerChargeID == "" {
		return errs.NewValueIsRequiredError("providerChargeID")
	}
	p.providerChargeID = providerChargeID
	return nil
}
