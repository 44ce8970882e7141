package commands

import (
	"context"
	"log/slog"

	"storefront/internal/core/ports"
)

// UpdateShipmentTrackingCommandHandler records carrier tracking events on
// the owning order. Duplicate events are tolerated: the shipment skips
// events already in its history, so webhook redelivery and the polling job
// can overlap safely.
type UpdateShipmentTrackingCommandHandler struct {
	uowFactory OrderUoWFactory
	auditor    ports.AuditRecorder
	locks      OrderLocker
	logger     *slog.Logger
}

// NewUpdateShipmentTrackingCommandHandler creates a handler for tracking
// updates.
func NewUpdateShipmentTrackingCommandHandler(
	uowFactory OrderUoWFactory,
	auditor ports.AuditRecorder,
	locks OrderLocker,
	logger *slog.Logger,
) UpdateShipmentTrackingCommandHandler {
	return UpdateShipmentTrackingCommandHandler{
		uowFactory: uowFactory,
		auditor:    auditor,
		locks:      locks,
		logger:     logger.With("component", "update_shipment_tracking_handler"),
	}
}

// Handle processes the tracking update command.
func (h UpdateShipmentTrackingCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateShipmentTrackingCommand,
) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	repo := uow.OrderRepository()

	// The shipment's order is unknown until the first load; lock the order
	// and reload inside the transaction like every other mutation.
	aggregate, err := repo.GetByShipment(ctx, cmd.ShipmentID())
	if err != nil {
		return err
	}
	orderID := aggregate.ID()

	h.locks.Lock(orderID.String())
	defer h.locks.Unlock(orderID.String())

	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo = uow.OrderRepository()
	aggregate, err = repo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	events := cmd.Events()
	for _, event := range events {
		if err = aggregate.ApplyTrackingUpdate(cmd.ShipmentID(), event); err != nil {
			return err
		}
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	// Carriers do not guarantee event ordering in their feeds.
	latest := events[0]
	for _, event := range events[1:] {
		if event.OccurredAt.After(latest.OccurredAt) {
			latest = event
		}
	}
	recordAudit(ctx, h.auditor, h.logger, orderID,
		"shipment", cmd.ShipmentID().String(), "update_tracking", cmd.Actor(), cmd.ActorType(),
		map[string]any{
			"status":      latest.Status.String(),
			"event_count": len(events),
		})
	return nil
}
