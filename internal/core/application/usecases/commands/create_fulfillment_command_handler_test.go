package commands_test

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateFulfillmentCommandHandler_Handle_PartialFulfillment(t *testing.T) {
	ctx := t.Context()
	_, fixture := newTestOrder(t).withCapturedPayment(t)
	aggregate := fixture.aggregate
	cmd, err := commands.NewCreateFulfillmentCommand(
		aggregate.ID(),
		[]order.FulfillmentRequest{{OrderItemID: fixture.itemID, Quantity: 2}},
		"usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
		repo.On("Update", ctx, aggregate).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	eta := time.Now().UTC().Add(72 * time.Hour)
	carrier := new(MockShippingCarrier)
	carrier.On("BuyLabel", mock.Anything, mock.MatchedBy(func(req ports.ShipmentRequest) bool {
		return req.Carrier == "usps" && req.Service == "Priority" &&
			len(req.Items) == 1 && req.Items[0].Quantity == 2
	})).Return(ports.ShippingLabel{
		LabelID:           "lbl_1",
		TrackingNumber:    "9400100000000000000001",
		LabelURL:          "https://labels.example.com/lbl_1.pdf",
		CostCents:         795,
		EstimatedDelivery: &eta,
	}, nil).Once()

	auditor := new(MockAuditRecorder)
	auditor.On("Record", mock.Anything, mock.AnythingOfType("*audit.Record")).Return(nil).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateFulfillmentCommandHandler(factory, carrier, auditor, testLocks(), testProviderTimeout, testLogger())
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.PartiallyFulfilled, aggregate.FulfillmentStatus())
	require.Len(t, aggregate.Shipments(), 1)
	shipment := aggregate.Shipments()[0]
	assert.Equal(t, order.LabelCreated, shipment.Status())
	assert.Equal(t, "9400100000000000000001", shipment.TrackingNumber())
	assert.Equal(t, int64(795), shipment.Cost().Cents())
	item, err := aggregate.Item(fixture.itemID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.FulfilledQty())
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	carrier.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

func TestCreateFulfillmentCommandHandler_Handle_UnpaidOrderRejected(t *testing.T) {
	ctx := t.Context()
	fixture := newTestOrder(t) // no payment captured
	aggregate := fixture.aggregate
	cmd, err := commands.NewCreateFulfillmentCommand(
		aggregate.ID(),
		[]order.FulfillmentRequest{{OrderItemID: fixture.itemID, Quantity: 1}},
		"usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
	)

	carrier := new(MockShippingCarrier)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateFulfillmentCommandHandler(
		factory, carrier, new(MockAuditRecorder), testLocks(), testProviderTimeout, testLogger())
	err = h.Handle(ctx, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStateConflict)
	carrier.AssertNotCalled(t, "BuyLabel", mock.Anything, mock.Anything)
}

func TestCreateFulfillmentCommandHandler_Handle_ExcessQuantityNeverBuysLabel(t *testing.T) {
	ctx := t.Context()
	_, fixture := newTestOrder(t).withCapturedPayment(t)
	aggregate := fixture.aggregate
	cmd, err := commands.NewCreateFulfillmentCommand(
		aggregate.ID(),
		[]order.FulfillmentRequest{{OrderItemID: fixture.itemID, Quantity: 4}}, // only 3 ordered
		"usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
	)

	carrier := new(MockShippingCarrier)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateFulfillmentCommandHandler(
		factory, carrier, new(MockAuditRecorder), testLocks(), testProviderTimeout, testLogger())
	err = h.Handle(ctx, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStateConflict)
	carrier.AssertNotCalled(t, "BuyLabel", mock.Anything, mock.Anything)
}

func TestCreateFulfillmentCommandHandler_Handle_CarrierFailurePersistsNothing(t *testing.T) {
	ctx := t.Context()
	_, fixture := newTestOrder(t).withCapturedPayment(t)
	aggregate := fixture.aggregate
	cmd, err := commands.NewCreateFulfillmentCommand(
		aggregate.ID(),
		[]order.FulfillmentRequest{{OrderItemID: fixture.itemID, Quantity: 1}},
		"usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
	)

	carrier := new(MockShippingCarrier)
	carrier.On("BuyLabel", mock.Anything, mock.AnythingOfType("ports.ShipmentRequest")).
		Return(ports.ShippingLabel{}, errs.NewProviderError("shippo", "buy_label", errors.New("rate not found"))).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateFulfillmentCommandHandler(
		factory, carrier, new(MockAuditRecorder), testLocks(), testProviderTimeout, testLogger())
	err = h.Handle(ctx, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrProviderFailure)
	assert.Empty(t, aggregate.Shipments())
	assert.Equal(t, order.FulfillmentPending, aggregate.FulfillmentStatus())
	uow.AssertNotCalled(t, "Begin", mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCreateFulfillmentCommandHandler_Handle_AddressValidationApplied(t *testing.T) {
	ctx := t.Context()
	_, fixture := newTestOrder(t).withCapturedPayment(t)
	aggregate := fixture.aggregate
	cmd, err := commands.NewCreateFulfillmentCommand(
		aggregate.ID(),
		[]order.FulfillmentRequest{{OrderItemID: fixture.itemID, Quantity: 1}},
		"usps", "Priority", commands.FulfillmentOptions{ValidateAddress: true}, "admin-1")
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", ctx, aggregate.ID()).Return(aggregate, nil).Once(),
		repo.On("Update", ctx, aggregate).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	normalized := testAddress(t, "ADA LOVELACE")
	carrier := new(MockShippingCarrier)
	mock.InOrder(
		carrier.On("ValidateAddress", mock.Anything, aggregate.ShippingAddress()).Return(normalized, nil).Once(),
		carrier.On("BuyLabel", mock.Anything, mock.MatchedBy(func(req ports.ShipmentRequest) bool {
			return req.ToAddress.IsEqual(normalized)
		})).Return(ports.ShippingLabel{
			LabelID:        "lbl_2",
			TrackingNumber: "9400100000000000000002",
			LabelURL:       "https://labels.example.com/lbl_2.pdf",
			CostCents:      495,
		}, nil).Once(),
	)

	auditor := new(MockAuditRecorder)
	auditor.On("Record", mock.Anything, mock.AnythingOfType("*audit.Record")).Return(nil).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateFulfillmentCommandHandler(factory, carrier, auditor, testLocks(), testProviderTimeout, testLogger())
	require.NoError(t, h.Handle(ctx, cmd))
	carrier.AssertExpectations(t)
}
