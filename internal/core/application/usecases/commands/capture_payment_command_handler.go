package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/errs"
)

// CapturePaymentCommandHandler captures an order's authorized payment.
//
// Precondition checks (authorized payment exists, amount within the
// authorization) run before the gateway call, so a rejected capture never
// produces provider side effects. A gateway failure aborts the operation
// with nothing persisted.
type CapturePaymentCommandHandler struct {
	uowFactory      OrderUoWFactory
	gateway         ports.PaymentGateway
	auditor         ports.AuditRecorder
	locks           OrderLocker
	providerTimeout time.Duration
	logger          *slog.Logger
}

// NewCapturePaymentCommandHandler creates a handler for payment capture.
func NewCapturePaymentCommandHandler(
	uowFactory OrderUoWFactory,
	gateway ports.PaymentGateway,
	auditor ports.AuditRecorder,
	locks OrderLocker,
	providerTimeout time.Duration,
	logger *slog.Logger,
) CapturePaymentCommandHandler {
	return CapturePaymentCommandHandler{
		uowFactory:      uowFactory,
		gateway:         gateway,
		auditor:         auditor,
		locks:           locks,
		providerTimeout: providerTimeout,
		logger:          logger.With("component", "capture_payment_handler"),
	}
}

// Handle processes the capture command.
func (h CapturePaymentCommandHandler) Handle(ctx context.Context, cmd CapturePaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	h.locks.Lock(cmd.OrderID().String())
	defer h.locks.Unlock(cmd.OrderID().String())

	uow := h.uowFactory.Create()
	repo := uow.OrderRepository()

	aggregate, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	payment, err := aggregate.AuthorizedPayment()
	if err != nil {
		return err
	}

	amount := payment.Amount()
	if cmd.AmountCents() != nil {
		if amount, err = kernel.NewMoney(*cmd.AmountCents()); err != nil {
			return err
		}
		if amount.GreaterThan(payment.Amount()) {
			return errs.NewStateConflictErrorWithCause(
				"capture amount exceeds authorized amount",
				fmt.Errorf("%s exceeds %s", amount, payment.Amount()),
			)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	amountCents := amount.Cents()
	_, err = h.gateway.Capture(callCtx, ports.CaptureRequest{
		PaymentIntentID: payment.ProviderChargeID(),
		AmountCents:     &amountCents,
	})
	cancel()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	paymentID := payment.ID()

	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	// Reload under the row lock; the per-order mutex already serializes
	// in-process callers.
	repo = uow.OrderRepository()
	aggregate, err = repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = aggregate.CapturePayment(paymentID, amount, now); err != nil {
		return err
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	recordAudit(ctx, h.auditor, h.logger, aggregate.ID(),
		"payment", paymentID.String(), "capture_payment", cmd.Actor(), audit.ActorAdmin,
		map[string]any{
			"amount_cents": amount.Cents(),
		})
	return nil
}
