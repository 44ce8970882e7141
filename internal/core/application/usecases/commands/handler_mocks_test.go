package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/orderlock"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testProviderTimeout = 5 * time.Second

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByShipment(ctx context.Context, shipmentID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) Authorize(ctx context.Context, req ports.AuthorizeRequest) (ports.PaymentIntent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) Capture(ctx context.Context, req ports.CaptureRequest) (ports.PaymentIntent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, req ports.RefundRequest) (ports.RefundResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.RefundResult), args.Error(1)
}

func (m *MockPaymentGateway) Void(ctx context.Context, req ports.VoidRequest) (ports.PaymentIntent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) GetPayment(ctx context.Context, paymentIntentID string) (ports.PaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.Get(0).(ports.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) VerifyWebhook(payload []byte, signature string) (ports.WebhookEvent, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(ports.WebhookEvent), args.Error(1)
}

type MockShippingCarrier struct{ mock.Mock }

func (m *MockShippingCarrier) QuoteRates(ctx context.Context, req ports.ShipmentRequest) ([]ports.ShippingRate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ShippingRate), args.Error(1)
}

func (m *MockShippingCarrier) BuyLabel(ctx context.Context, req ports.ShipmentRequest) (ports.ShippingLabel, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.ShippingLabel), args.Error(1)
}

func (m *MockShippingCarrier) VoidLabel(ctx context.Context, labelID string) (bool, error) {
	args := m.Called(ctx, labelID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShippingCarrier) Track(ctx context.Context, trackingNumber, carrier string) ([]ports.TrackingInfo, error) {
	args := m.Called(ctx, trackingNumber, carrier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.TrackingInfo), args.Error(1)
}

func (m *MockShippingCarrier) ValidateAddress(ctx context.Context, address kernel.Address) (kernel.Address, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(kernel.Address), args.Error(1)
}

type MockAuditRecorder struct{ mock.Mock }

func (m *MockAuditRecorder) Record(ctx context.Context, record *audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testLocks() *orderlock.Registry {
	return orderlock.NewRegistry()
}

func testAddress(t *testing.T, name string) kernel.Address {
	t.Helper()
	addr, err := kernel.NewAddress(name, "1 Main St", "", "Springfield", "IL", "62701", "US", "", "")
	require.NoError(t, err)
	return addr
}

func mustMoney(t *testing.T, cents int64) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoney(cents)
	require.NoError(t, err)
	return m
}

// testOrderFixture is an order with one 3-unit item, useful as a base for
// handler tests. Payments are added per-test.
type testOrderFixture struct {
	aggregate *order.Order
	itemID    kernel.UUID
}

func newTestOrder(t *testing.T) testOrderFixture {
	t.Helper()

	itemID := kernel.NewUUID()
	item, err := order.NewOrderItem(itemID, "Widget", 3, mustMoney(t, 1000))
	require.NoError(t, err)

	aggregate, err := order.NewOrder(
		kernel.NewUUID(),
		"SF-1042", "USD", "Ada Lovelace", "ada@example.com",
		mustMoney(t, 3000),
		testAddress(t, "Storefront Inc"), testAddress(t, "Ada Lovelace"),
		[]*order.OrderItem{item},
		nil, "",
		time.Now().UTC(),
	)
	require.NoError(t, err)

	return testOrderFixture{aggregate: aggregate, itemID: itemID}
}

// withAuthorizedPayment attaches an authorized payment for the order total.
func (f testOrderFixture) withAuthorizedPayment(t *testing.T) (*order.Payment, testOrderFixture) {
	t.Helper()
	payment, err := order.NewPayment(kernel.NewUUID(), mustMoney(t, 3000), "stripe", "pi_test_1")
	require.NoError(t, err)
	require.NoError(t, f.aggregate.AddPayment(payment))
	return payment, f
}

// withCapturedPayment attaches a payment captured for the order total.
func (f testOrderFixture) withCapturedPayment(t *testing.T) (*order.Payment, testOrderFixture) {
	t.Helper()
	payment, f2 := f.withAuthorizedPayment(t)
	require.NoError(t, f2.aggregate.CapturePayment(payment.ID(), mustMoney(t, 3000), time.Now().UTC()))
	return payment, f2
}
