package commands

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
)

// ProcessRefundCommandHandler returns captured funds to the customer.
//
// Every precondition (captured payment exists, amount within the remaining
// balance, item quantities refundable) is checked before the gateway call,
// so an invalid refund never reaches the provider. The refund record, the
// payment balance, and the item counters are committed in one transaction.
type ProcessRefundCommandHandler struct {
	uowFactory      OrderUoWFactory
	gateway         ports.PaymentGateway
	auditor         ports.AuditRecorder
	locks           OrderLocker
	providerTimeout time.Duration
	logger          *slog.Logger
}

// NewProcessRefundCommandHandler creates a handler for refunds.
func NewProcessRefundCommandHandler(
	uowFactory OrderUoWFactory,
	gateway ports.PaymentGateway,
	auditor ports.AuditRecorder,
	locks OrderLocker,
	providerTimeout time.Duration,
	logger *slog.Logger,
) ProcessRefundCommandHandler {
	return ProcessRefundCommandHandler{
		uowFactory:      uowFactory,
		gateway:         gateway,
		auditor:         auditor,
		locks:           locks,
		providerTimeout: providerTimeout,
		logger:          logger.With("component", "process_refund_handler"),
	}
}

// Handle processes the refund command.
func (h ProcessRefundCommandHandler) Handle(ctx context.Context, cmd ProcessRefundCommand) error {
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

	amount, err := kernel.NewMoney(cmd.AmountCents())
	if err != nil {
		return err
	}

	payment, err := aggregate.ValidateRefund(amount)
	if err != nil {
		return err
	}
	if err = h.validateItems(aggregate, cmd.Items()); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	result, err := h.gateway.Refund(callCtx, ports.RefundRequest{
		ChargeID:    payment.ProviderChargeID(),
		AmountCents: amount.Cents(),
		Reason:      cmd.Reason(),
	})
	cancel()
	if err != nil {
		return err
	}

	refund, err := order.NewRefund(
		kernel.NewUUID(),
		amount,
		cmd.Reason(),
		result.Status,
		payment.Provider(), result.ID,
		cmd.Items(),
	)
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

	// Reload under the row lock; the balance was only pre-checked above.
	repo = uow.OrderRepository()
	aggregate, err = repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = aggregate.ApplyRefund(paymentID, refund, now); err != nil {
		return err
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	recordAudit(ctx, h.auditor, h.logger, aggregate.ID(),
		"refund", refund.ID().String(), "process_refund", cmd.Actor(), audit.ActorAdmin,
		map[string]any{
			"amount_cents":       amount.Cents(),
			"reason":             cmd.Reason(),
			"provider_refund_id": result.ID,
		})
	return nil
}

// validateItems pre-checks that every named item can absorb the requested
// refund quantity, without mutating anything.
func (h ProcessRefundCommandHandler) validateItems(
	aggregate *order.Order,
	requests []order.RefundItemRequest,
) error {
	for _, req := range requests {
		item, err := aggregate.Item(req.OrderItemID)
		if err != nil {
			return err
		}
		if err = item.ValidateRefundQty(req.Quantity); err != nil {
			return err
		}
	}
	return nil
}
