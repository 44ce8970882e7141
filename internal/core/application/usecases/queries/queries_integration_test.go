package queries_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/adapters/out/postgres/orderrepo"
	"storefront/internal/core/application/usecases/queries"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type noopTracker struct{}

func (noopTracker) TrackAggregate(kernel.UUID, any) {}

// QueriesIntegrationTestSuite verifies the read-model handlers against a real
// PostgreSQL instance. Data is seeded through the write-side repository so
// the queries are tested against exactly what the mutation path persists.
type QueriesIntegrationTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
}

func (suite *QueriesIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
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

func (suite *QueriesIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders CASCADE").Error)
}

func (suite *QueriesIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *QueriesIntegrationTestSuite) TestGetOrders_FiltersByPaymentStatus() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 3000, true, false)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 5000, false, false)

	query, err := queries.NewGetOrdersQuery(queries.OrderFilter{
		PaymentStatuses: []order.PaymentStatus{order.PaymentCaptured},
	}, "", false, 1, 0)
	suite.Require().NoError(err)

	handler := queries.NewGetOrdersQueryHandler(suite.db)
	resp, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Equal(int64(1), resp.Total)
	suite.Require().Len(resp.Orders, 1)
	suite.Equal("SF-0001", resp.Orders[0].Number)
	suite.Equal(order.PaymentCaptured, resp.Orders[0].PaymentStatus)
	suite.Equal(1, resp.Orders[0].ItemCount)
}

func (suite *QueriesIntegrationTestSuite) TestGetOrders_SearchMatchesTrackingNumber() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 3000, true, true)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 5000, true, false)

	query, err := queries.NewGetOrdersQuery(queries.OrderFilter{
		Search: "1Z999SF-0001",
	}, "", false, 1, 0)
	suite.Require().NoError(err)

	handler := queries.NewGetOrdersQueryHandler(suite.db)
	resp, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Equal(int64(1), resp.Total)
	suite.Require().Len(resp.Orders, 1)
	suite.Equal("SF-0001", resp.Orders[0].Number)
}

func (suite *QueriesIntegrationTestSuite) TestGetOrders_SearchMatchesCustomerCaseInsensitive() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 3000, false, false)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 5000, false, false)

	query, err := queries.NewGetOrdersQuery(queries.OrderFilter{
		Search: "grace",
	}, "", false, 1, 0)
	suite.Require().NoError(err)

	handler := queries.NewGetOrdersQueryHandler(suite.db)
	resp, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(resp.Orders, 1)
	suite.Equal("SF-0002", resp.Orders[0].Number)
}

func (suite *QueriesIntegrationTestSuite) TestGetOrders_SortsAndPaginates() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 1000, false, false)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 3000, false, false)
	suite.seedOrder("SF-0003", "Alan Turing", "alan@example.com", 2000, false, false)

	query, err := queries.NewGetOrdersQuery(queries.OrderFilter{}, "grand_total", true, 1, 2)
	suite.Require().NoError(err)

	handler := queries.NewGetOrdersQueryHandler(suite.db)
	resp, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Equal(int64(3), resp.Total)
	suite.Require().Len(resp.Orders, 2)
	suite.Equal("SF-0002", resp.Orders[0].Number)
	suite.Equal("SF-0003", resp.Orders[1].Number)

	// Second page carries the remainder.
	query, err = queries.NewGetOrdersQuery(queries.OrderFilter{}, "grand_total", true, 2, 2)
	suite.Require().NoError(err)
	resp, err = handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(resp.Orders, 1)
	suite.Equal("SF-0001", resp.Orders[0].Number)
}

func (suite *QueriesIntegrationTestSuite) TestGetOrders_TotalRangeFilter() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 1000, false, false)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 3000, false, false)

	minTotal := int64(2000)
	query, err := queries.NewGetOrdersQuery(queries.OrderFilter{
		MinTotalCents: &minTotal,
	}, "", false, 1, 0)
	suite.Require().NoError(err)

	handler := queries.NewGetOrdersQueryHandler(suite.db)
	resp, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(resp.Orders, 1)
	suite.Equal("SF-0002", resp.Orders[0].Number)
}

func (suite *QueriesIntegrationTestSuite) TestExportOrders_AggregatesItemsAndTracking() {
	suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 3000, true, true)
	suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 5000, false, false)

	query, err := queries.NewExportOrdersQuery(queries.OrderFilter{})
	suite.Require().NoError(err)

	handler := queries.NewExportOrdersQueryHandler(suite.db)
	rows, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(rows, 2)
	// Oldest first.
	suite.Equal("SF-0001", rows[0].Number)
	suite.Equal("3x Widget", rows[0].ItemsSummary)
	suite.Equal("1Z999SF-0001", rows[0].TrackingNumbers)
	suite.Equal("Captured", rows[0].PaymentStatus)
	suite.Equal("SF-0002", rows[1].Number)
	suite.Empty(rows[1].TrackingNumbers)
}

func (suite *QueriesIntegrationTestSuite) TestGetActiveShipments_SkipsDeliveredAndCancelled() {
	activeOrder := suite.seedOrder("SF-0001", "Ada Lovelace", "ada@example.com", 3000, true, true)
	deliveredOrder := suite.seedOrder("SF-0002", "Grace Hopper", "grace@example.com", 3000, true, true)

	// Drive the second order's shipment to delivered.
	shipmentID := deliveredOrder.Shipments()[0].ID()
	suite.Require().NoError(deliveredOrder.ApplyTrackingUpdate(shipmentID, order.TrackingEvent{
		Status:     order.ShipmentDelivered,
		OccurredAt: time.Now().UTC(),
	}))
	repo := orderrepo.NewGormOrderRepository(suite.db, noopTracker{}, false)
	suite.Require().NoError(repo.Update(context.Background(), deliveredOrder))

	query := queries.NewGetActiveShipmentsQuery()
	handler := queries.NewGetActiveShipmentsQueryHandler(suite.db)
	shipments, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(shipments, 1)
	suite.Equal(activeOrder.ID(), shipments[0].OrderID)
	suite.Equal("ups", shipments[0].Carrier)
	suite.Equal("1Z999SF-0001", shipments[0].TrackingNumber)
	suite.Equal(order.LabelCreated, shipments[0].Status)
}

// seedOrder persists an order with one 3-unit Widget line through the
// write-side repository. captured adds a captured payment for the full
// total; shipped fulfills all three units with a ups label whose tracking
// number embeds the order number.
func (suite *QueriesIntegrationTestSuite) seedOrder(
	number, customerName, customerEmail string,
	totalCents int64,
	captured, shipped bool,
) *order.Order {
	item, err := order.NewOrderItem(kernel.NewUUID(), "Widget", 3, suite.money(totalCents/3))
	suite.Require().NoError(err)

	aggregate, err := order.NewOrder(
		kernel.NewUUID(),
		number, "USD", customerName, customerEmail,
		suite.money(totalCents),
		suite.address("Storefront Inc"), suite.address(customerName),
		[]*order.OrderItem{item},
		nil, "",
		time.Now().UTC(),
	)
	suite.Require().NoError(err)

	if captured {
		payment, perr := order.NewPayment(kernel.NewUUID(), suite.money(totalCents), "stripe", "pi_"+number)
		suite.Require().NoError(perr)
		suite.Require().NoError(aggregate.AddPayment(payment))
		suite.Require().NoError(aggregate.CapturePayment(payment.ID(), suite.money(totalCents), time.Now().UTC()))
	}

	if shipped {
		shipment, serr := order.NewShipment(
			kernel.NewUUID(),
			"ups", "ground", "1Z999"+number, "https://labels.test/"+number+".pdf",
			suite.money(799),
			suite.address("Storefront Inc"), suite.address(customerName),
			nil,
			[]order.ShipmentItem{{OrderItemID: item.ID(), Quantity: 3}},
		)
		suite.Require().NoError(serr)
		requests := []order.FulfillmentRequest{{OrderItemID: item.ID(), Quantity: 3}}
		suite.Require().NoError(aggregate.Fulfill(shipment, requests, time.Now().UTC()))
	}

	repo := orderrepo.NewGormOrderRepository(suite.db, noopTracker{}, false)
	suite.Require().NoError(repo.Add(context.Background(), aggregate))
	return aggregate
}

func (suite *QueriesIntegrationTestSuite) money(cents int64) kernel.Money {
	m, err := kernel.NewMoney(cents)
	suite.Require().NoError(err)
	return m
}

func (suite *QueriesIntegrationTestSuite) address(name string) kernel.Address {
	addr, err := kernel.NewAddress(name, "1 Main St", "", "Springfield", "IL", "62701", "US", "", "")
	suite.Require().NoError(err)
	return addr
}

func TestQueriesIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(QueriesIntegrationTestSuite))
}
