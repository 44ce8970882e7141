package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/adapters/out/postgres/orderrepo"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of the aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite verifies that order aggregates survive
// a full round trip through PostgreSQL, children included.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.PaymentDTO{},
		&orderrepo.ShipmentDTO{},
		&orderrepo.ShipmentItemDTO{},
		&orderrepo.TrackingEventDTO{},
		&orderrepo.RefundDTO{},
		&orderrepo.RefundItemDTO{},
	))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders CASCADE").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker, false)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ValidOrder_Success() {
	ctx := context.Background()

	testOrder, _ := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()

	err := suite.repository.Add(ctx, testOrder)
	suite.Require().NoError(err)

	suite.assertRowCount("orders", 1)
	suite.assertRowCount("order_items", 2)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_ExistingOrder_ReturnsWholeAggregate() {
	ctx := context.Background()

	testOrder, itemIDs := suite.createTestOrder()
	payment := suite.addCapturedPayment(testOrder, 5000)
	suite.fulfillFirstItem(testOrder, itemIDs[0])
	suite.addRefund(testOrder, payment, 1000, itemIDs[0])

	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Equal(testOrder.ID(), retrieved.ID())
	suite.Equal("SF-2001", retrieved.Number())
	suite.Equal("USD", retrieved.Currency())
	suite.Equal(order.PaymentPartiallyRefunded, retrieved.PaymentStatus())
	suite.Equal(order.PartiallyFulfilled, retrieved.FulfillmentStatus())
	suite.Equal(int64(5000), retrieved.GrandTotal().Cents())
	suite.Equal([]string{"priority", "gift"}, retrieved.Tags())

	suite.Require().Len(retrieved.Items(), 2)
	restoredItem, err := retrieved.Item(itemIDs[0])
	suite.Require().NoError(err)
	suite.Equal(2, restoredItem.FulfilledQty())
	suite.Equal(1, restoredItem.RefundedQty())

	suite.Require().Len(retrieved.Payments(), 1)
	suite.Equal(order.PaymentPartiallyRefunded, retrieved.Payments()[0].Status())
	suite.Equal(int64(5000), retrieved.Payments()[0].Captured().Cents())
	suite.Equal(int64(1000), retrieved.Payments()[0].Refunded().Cents())

	suite.Require().Len(retrieved.Shipments(), 1)
	shipment := retrieved.Shipments()[0]
	suite.Equal("ups", shipment.Carrier())
	suite.Equal("1Z999TEST", shipment.TrackingNumber())
	suite.Equal(order.LabelCreated, shipment.Status())
	suite.Require().Len(shipment.Items(), 1)
	suite.Equal(2, shipment.Items()[0].Quantity)

	suite.Require().Len(retrieved.Refunds(), 1)
	suite.Equal(int64(1000), retrieved.Refunds()[0].Amount().Cents())
	suite.Equal(order.RefundSucceeded, retrieved.Refunds()[0].Status())
	suite.Require().Len(retrieved.Refunds()[0].Items(), 1)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	retrieved, err := suite.repository.Get(ctx, kernel.NewUUID())

	suite.Nil(retrieved)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByShipment_ReturnsOwningOrder() {
	ctx := context.Background()

	testOrder, itemIDs := suite.createTestOrder()
	suite.addCapturedPayment(testOrder, 5000)
	suite.fulfillFirstItem(testOrder, itemIDs[0])

	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	shipmentID := testOrder.Shipments()[0].ID()
	retrieved, err := suite.repository.GetByShipment(ctx, shipmentID)
	suite.Require().NoError(err)
	suite.Equal(testOrder.ID(), retrieved.ID())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByShipment_UnknownShipment_ReturnsNotFoundError() {
	ctx := context.Background()

	retrieved, err := suite.repository.GetByShipment(ctx, kernel.NewUUID())

	suite.Nil(retrieved)
	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_PersistsAppendedChildrenAndCounters() {
	ctx := context.Background()

	testOrder, itemIDs := suite.createTestOrder()
	suite.addCapturedPayment(testOrder, 5000)

	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	// Mutate after the initial insert: a new shipment plus item counters.
	suite.fulfillFirstItem(testOrder, itemIDs[0])
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Equal(order.PartiallyFulfilled, retrieved.FulfillmentStatus())
	suite.Require().Len(retrieved.Shipments(), 1)
	restoredItem, err := retrieved.Item(itemIDs[0])
	suite.Require().NoError(err)
	suite.Equal(2, restoredItem.FulfilledQty())

	suite.assertRowCount("shipments", 1)
	suite.assertRowCount("shipment_items", 1)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_TrackingEventsAccumulate() {
	ctx := context.Background()

	testOrder, itemIDs := suite.createTestOrder()
	suite.addCapturedPayment(testOrder, 5000)
	suite.fulfillFirstItem(testOrder, itemIDs[0])

	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	shipmentID := testOrder.Shipments()[0].ID()
	suite.Require().NoError(testOrder.ApplyTrackingUpdate(shipmentID, order.TrackingEvent{
		Status:      order.InTransit,
		Description: "Departed facility",
		Location:    "Chicago, IL",
		OccurredAt:  time.Now().UTC(),
	}))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	shipment := retrieved.Shipments()[0]
	suite.Equal(order.InTransit, shipment.Status())
	suite.Require().Len(shipment.Events(), 1)
	suite.Equal("Departed facility", shipment.Events()[0].Description)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_ReloadedAggregateDoesNotDuplicateEvents() {
	ctx := context.Background()

	testOrder, itemIDs := suite.createTestOrder()
	suite.addCapturedPayment(testOrder, 5000)
	suite.fulfillFirstItem(testOrder, itemIDs[0])

	shipmentID := testOrder.Shipments()[0].ID()
	suite.Require().NoError(testOrder.ApplyTrackingUpdate(shipmentID, order.TrackingEvent{
		Status:      order.InTransit,
		Description: "Departed facility",
		Location:    "Chicago, IL",
		OccurredAt:  time.Now().UTC().Add(-2 * time.Hour),
	}))

	suite.tracker.On("TrackAggregate", testOrder.ID(), mock.Anything).Times(3)
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	// Mutate a reloaded copy, the way every command handler does.
	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(retrieved.ApplyTrackingUpdate(shipmentID, order.TrackingEvent{
		Status:      order.OutForDelivery,
		Description: "Out for delivery",
		Location:    "Springfield, IL",
		OccurredAt:  time.Now().UTC(),
	}))
	suite.Require().NoError(suite.repository.Update(ctx, retrieved))

	reloaded, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().Len(reloaded.Shipments()[0].Events(), 2)
	suite.assertRowCount("tracking_events", 2)

	// A save that touches nothing else must not re-insert the history either.
	suite.Require().NoError(suite.repository.Update(ctx, reloaded))
	suite.assertRowCount("tracking_events", 2)
	suite.tracker.AssertExpectations(suite.T())
}

// createTestOrder builds an order with two items: 3x Widget @ 1000 and
// 1x Gadget @ 2000, grand total 5000 cents.
func (suite *OrderRepositoryIntegrationTestSuite) createTestOrder() (*order.Order, []kernel.UUID) {
	widgetID := kernel.NewUUID()
	gadgetID := kernel.NewUUID()

	widget, err := order.NewOrderItem(widgetID, "Widget", 3, suite.money(1000))
	suite.Require().NoError(err)
	gadget, err := order.NewOrderItem(gadgetID, "Gadget", 1, suite.money(2000))
	suite.Require().NoError(err)

	aggregate, err := order.NewOrder(
		kernel.NewUUID(),
		"SF-2001", "USD", "Grace Hopper", "grace@example.com",
		suite.money(5000),
		suite.address("Storefront Inc"), suite.address("Grace Hopper"),
		[]*order.OrderItem{widget, gadget},
		[]string{"priority", "gift"}, "leave at door",
		time.Now().UTC(),
	)
	suite.Require().NoError(err)

	return aggregate, []kernel.UUID{widgetID, gadgetID}
}

func (suite *OrderRepositoryIntegrationTestSuite) addCapturedPayment(aggregate *order.Order, cents int64) *order.Payment {
	payment, err := order.NewPayment(kernel.NewUUID(), suite.money(cents), "stripe", "pi_it_1")
	suite.Require().NoError(err)
	suite.Require().NoError(aggregate.AddPayment(payment))
	suite.Require().NoError(aggregate.CapturePayment(payment.ID(), suite.money(cents), time.Now().UTC()))
	return payment
}

// fulfillFirstItem ships 2 units of the given item with a ups ground label.
func (suite *OrderRepositoryIntegrationTestSuite) fulfillFirstItem(aggregate *order.Order, itemID kernel.UUID) {
	shipment, err := order.NewShipment(
		kernel.NewUUID(),
		"ups", "ground", "1Z999TEST", "https://labels.test/1Z999TEST.pdf",
		suite.money(799),
		suite.address("Storefront Inc"), suite.address("Grace Hopper"),
		nil,
		[]order.ShipmentItem{{OrderItemID: itemID, Quantity: 2}},
	)
	suite.Require().NoError(err)

	requests := []order.FulfillmentRequest{{OrderItemID: itemID, Quantity: 2}}
	suite.Require().NoError(aggregate.Fulfill(shipment, requests, time.Now().UTC()))
}

func (suite *OrderRepositoryIntegrationTestSuite) addRefund(
	aggregate *order.Order, payment *order.Payment, cents int64, itemID kernel.UUID,
) {
	refund, err := order.NewRefund(
		kernel.NewUUID(), suite.money(cents), "damaged in transit",
		order.RefundSucceeded, "stripe", "re_it_1",
		[]order.RefundItemRequest{{OrderItemID: itemID, Quantity: 1}},
	)
	suite.Require().NoError(err)
	suite.Require().NoError(aggregate.ApplyRefund(payment.ID(), refund, time.Now().UTC()))
}

func (suite *OrderRepositoryIntegrationTestSuite) money(cents int64) kernel.Money {
	m, err := kernel.NewMoney(cents)
	suite.Require().NoError(err)
	return m
}

func (suite *OrderRepositoryIntegrationTestSuite) address(name string) kernel.Address {
	addr, err := kernel.NewAddress(name, "1 Main St", "", "Springfield", "IL", "62701", "US", "", "")
	suite.Require().NoError(err)
	return addr
}

func (suite *OrderRepositoryIntegrationTestSuite) assertRowCount(table string, expected int64) {
	var count int64
	suite.Require().NoError(suite.db.Table(table).Count(&count).Error)
	suite.Equal(expected, count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
