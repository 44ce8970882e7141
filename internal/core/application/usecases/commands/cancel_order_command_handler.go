package commands

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
)

// CancelOrderCommandHandler orchestrates order cancellation.
//
// The delivered-order check runs before anything else, so a rejected
// cancellation has no side effects at all. Voiding authorized payments is
// best-effort: each gateway failure is logged and skipped. Shipments not yet
// handed to the carrier are cancelled locally, the order becomes Cancelled,
// and an audit record is written after commit.
type CancelOrderCommandHandler struct {
	uowFactory      OrderUoWFactory
	gateway         ports.PaymentGateway
	auditor         ports.AuditRecorder
	locks           OrderLocker
	providerTimeout time.Duration
	logger          *slog.Logger
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(
	uowFactory OrderUoWFactory,
	gateway ports.PaymentGateway,
	auditor ports.AuditRecorder,
	locks OrderLocker,
	providerTimeout time.Duration,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory:      uowFactory,
		gateway:         gateway,
		auditor:         auditor,
		locks:           locks,
		providerTimeout: providerTimeout,
		logger:          logger.With("component", "cancel_order_handler"),
	}
}

// Handle processes the cancellation command.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	h.locks.Lock(cmd.OrderID().String())
	defer h.locks.Unlock(cmd.OrderID().String())

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	aggregate, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = aggregate.FulfillmentStatus().ValidateCancel(); err != nil {
		return err
	}

	voided := h.voidAuthorizedPayments(ctx, aggregate)

	now := time.Now().UTC()
	if err = aggregate.Cancel(cmd.Reason(), now); err != nil {
		return err
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	recordAudit(ctx, h.auditor, h.logger, aggregate.ID(),
		"order", aggregate.ID().String(), "cancel_order", cmd.Actor(), audit.ActorAdmin,
		map[string]any{
			"reason":          cmd.Reason(),
			"voided_payments": voided,
		})
	return nil
}

// voidAuthorizedPayments attempts to void every authorized payment against
// the gateway. Failures are logged and skipped: a failed void must not block
// cancellation. Returns the provider charge IDs that were voided.
func (h CancelOrderCommandHandler) voidAuthorizedPayments(ctx context.Context, aggregate *order.Order) []string {
	voided := make([]string, 0)
	for _, payment := range aggregate.Payments() {
		if payment.Status() != order.PaymentAuthorized {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
		_, err := h.gateway.Void(callCtx, ports.VoidRequest{
			PaymentIntentID: payment.ProviderChargeID(),
			Reason:          "order cancelled",
		})
		cancel()
		if err != nil {
			h.logger.WarnContext(ctx, "best-effort payment void failed",
				"order_id", aggregate.ID().String(),
				"payment_id", payment.ID().String(),
				"error", err)
			continue
		}

		if err = aggregate.MarkPaymentVoided(payment.ID()); err != nil {
			h.logger.WarnContext(ctx, "failed to record voided payment",
				"payment_id", payment.ID().String(), "error", err)
			continue
		}
		voided = append(voided, payment.ProviderChargeID())
	}
	return voided
}
