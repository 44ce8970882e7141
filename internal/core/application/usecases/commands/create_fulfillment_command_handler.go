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

// defaultItemWeightGrams is used when rating parcels; the catalogue carries
// no per-SKU weights yet.
// TODO: read weights from the product catalogue once it exposes them.
const defaultItemWeightGrams = 500

// CreateFulfillmentCommandHandler ships order items: it validates the
// requested quantities against the order, buys a carrier label, and records
// the resulting shipment with the fulfilled counters in one transaction.
//
// The label purchase happens before the transaction opens. A carrier failure
// therefore persists nothing, and a persistence failure after a purchased
// label is surfaced to the caller for manual reconciliation rather than
// auto-voided.
type CreateFulfillmentCommandHandler struct {
	uowFactory      OrderUoWFactory
	carrier         ports.ShippingCarrier
	auditor         ports.AuditRecorder
	locks           OrderLocker
	providerTimeout time.Duration
	logger          *slog.Logger
}

// NewCreateFulfillmentCommandHandler creates a handler for fulfillments.
func NewCreateFulfillmentCommandHandler(
	uowFactory OrderUoWFactory,
	carrier ports.ShippingCarrier,
	auditor ports.AuditRecorder,
	locks OrderLocker,
	providerTimeout time.Duration,
	logger *slog.Logger,
) CreateFulfillmentCommandHandler {
	return CreateFulfillmentCommandHandler{
		uowFactory:      uowFactory,
		carrier:         carrier,
		auditor:         auditor,
		locks:           locks,
		providerTimeout: providerTimeout,
		logger:          logger.With("component", "create_fulfillment_handler"),
	}
}

// Handle processes the fulfillment command.
func (h CreateFulfillmentCommandHandler) Handle(ctx context.Context, cmd CreateFulfillmentCommand) error {
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

	requests := cmd.Items()
	if err = aggregate.ValidateFulfillment(requests); err != nil {
		return err
	}

	shipReq, err := h.buildShipmentRequest(ctx, aggregate, cmd)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	label, err := h.carrier.BuyLabel(callCtx, shipReq)
	cancel()
	if err != nil {
		return err
	}

	cost, err := kernel.NewMoney(label.CostCents)
	if err != nil {
		return err
	}

	shipmentItems := make([]order.ShipmentItem, 0, len(requests))
	for _, req := range requests {
		shipmentItems = append(shipmentItems, order.ShipmentItem{
			OrderItemID: req.OrderItemID,
			Quantity:    req.Quantity,
		})
	}

	shipment, err := order.NewShipment(
		kernel.NewUUID(),
		cmd.Carrier(), cmd.Service(),
		label.TrackingNumber, label.LabelURL,
		cost,
		shipReq.FromAddress, shipReq.ToAddress,
		label.EstimatedDelivery,
		shipmentItems,
	)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	// Reload under the row lock; the quantities were only pre-checked above.
	repo = uow.OrderRepository()
	aggregate, err = repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = aggregate.Fulfill(shipment, requests, now); err != nil {
		return err
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	recordAudit(ctx, h.auditor, h.logger, aggregate.ID(),
		"shipment", shipment.ID().String(), "create_fulfillment", cmd.Actor(), audit.ActorAdmin,
		map[string]any{
			"carrier":         cmd.Carrier(),
			"service":         cmd.Service(),
			"tracking_number": label.TrackingNumber,
			"cost_cents":      label.CostCents,
		})
	return nil
}

// buildShipmentRequest assembles the carrier request: ship from the
// merchant's billing address to the order's shipping address, with the
// requested item lines described for rating.
func (h CreateFulfillmentCommandHandler) buildShipmentRequest(
	ctx context.Context,
	aggregate *order.Order,
	cmd CreateFulfillmentCommand,
) (ports.ShipmentRequest, error) {
	byID := make(map[kernel.UUID]*order.OrderItem, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		byID[item.ID()] = item
	}

	parcelItems := make([]ports.ParcelItem, 0, len(cmd.Items()))
	for _, req := range cmd.Items() {
		item := byID[req.OrderItemID]
		parcelItems = append(parcelItems, ports.ParcelItem{
			Name:        item.Name(),
			Quantity:    req.Quantity,
			WeightGrams: defaultItemWeightGrams * req.Quantity,
			ValueCents:  item.Price().Cents() * int64(req.Quantity),
		})
	}

	toAddress := aggregate.ShippingAddress()
	if cmd.Options().ValidateAddress {
		callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
		validated, err := h.carrier.ValidateAddress(callCtx, toAddress)
		cancel()
		if err != nil {
			return ports.ShipmentRequest{}, err
		}
		toAddress = validated
	}

	return ports.ShipmentRequest{
		FromAddress: aggregate.BillingAddress(),
		ToAddress:   toAddress,
		Items:       parcelItems,
		Carrier:     cmd.Carrier(),
		Service:     cmd.Service(),
		Insurance:   cmd.Options().Insurance,
		Signature:   cmd.Options().Signature,
	}, nil
}
