// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. The order aggregate spans six tables (orders, order
// items, payments, shipments with their items and tracking events, refunds
// with their items); the DTOs here keep that relational shape out of the
// domain model.
package orderrepo

import (
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AddressDTO is a postal address embedded into its owning row. Orders carry
// a billing_ and a shipping_ copy, shipments a from_ and a to_ copy.
type AddressDTO struct {
	Name       string
	Street1    string
	Street2    string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	Email      string
}

// OrderDTO represents the database structure for persisting order aggregates.
// Child rows hang off the order via OrderID foreign keys and are written in
// the same transaction as the order row.
type OrderDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Number            string    `gorm:"uniqueIndex"`
	Currency          string
	CustomerName      string
	CustomerEmail     string `gorm:"index"`
	PaymentStatus     int    `gorm:"index"`
	FulfillmentStatus int    `gorm:"index"`
	GrandTotalCents   int64
	BillingAddress    AddressDTO `gorm:"embedded;embeddedPrefix:billing_"`
	ShippingAddress   AddressDTO `gorm:"embedded;embeddedPrefix:shipping_"`
	CancelReason      string
	CancelledAt       *time.Time
	Tags              pq.StringArray `gorm:"type:text[]"`
	Notes             string
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time

	Items     []ItemDTO     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments  []PaymentDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipments []ShipmentDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Refunds   []RefundDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one order line item with its fulfillment and refund counters.
type ItemDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `gorm:"type:uuid;index"`
	Name         string
	Quantity     int
	PriceCents   int64
	FulfilledQty int
	RefundedQty  int
}

// TableName maps line items to the "order_items" table.
func (ItemDTO) TableName() string {
	return "order_items"
}

// PaymentDTO is one payment with its running captured and refunded balances.
type PaymentDTO struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"type:uuid;index"`
	AmountCents      int64
	CapturedCents    int64
	RefundedCents    int64
	Provider         string
	ProviderChargeID string `gorm:"index"`
	Status           int
	CapturedAt       *time.Time
}

// TableName maps payments to the "payments" table.
func (PaymentDTO) TableName() string {
	return "payments"
}

// ShipmentDTO is one physical package with its allocated items and tracking
// history.
type ShipmentDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID `gorm:"type:uuid;index"`
	Carrier           string
	Service           string
	TrackingNumber    string `gorm:"index"`
	LabelURL          string
	CostCents         int64
	Status            int        `gorm:"index"`
	FromAddress       AddressDTO `gorm:"embedded;embeddedPrefix:from_"`
	ToAddress         AddressDTO `gorm:"embedded;embeddedPrefix:to_"`
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time

	Items  []ShipmentItemDTO  `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	Events []TrackingEventDTO `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

// TableName maps shipments to the "shipments" table.
func (ShipmentDTO) TableName() string {
	return "shipments"
}

// ShipmentItemDTO allocates a quantity of one order item to a shipment.
type ShipmentItemDTO struct {
	ShipmentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderItemID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity    int
}

// TableName maps shipment allocations to the "shipment_items" table.
func (ShipmentItemDTO) TableName() string {
	return "shipment_items"
}

// TrackingEventDTO is one carrier tracking update, append-only. The primary
// key is assigned in the domain when the event first enters the history, so
// repeated aggregate saves upsert the same rows instead of inserting copies.
type TrackingEventDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;index"`
	Status      int
	Description string
	Location    string
	OccurredAt  time.Time
}

// TableName maps tracking events to the "tracking_events" table.
func (TrackingEventDTO) TableName() string {
	return "tracking_events"
}

// RefundDTO is one provider refund with its optional item allocations.
type RefundDTO struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"type:uuid;index"`
	AmountCents      int64
	Reason           string
	Status           int
	Provider         string
	ProviderRefundID string

	Items []RefundItemDTO `gorm:"foreignKey:RefundID;constraint:OnDelete:CASCADE"`
}

// TableName maps refunds to the "refunds" table.
func (RefundDTO) TableName() string {
	return "refunds"
}

// RefundItemDTO allocates a share of a refund to one order item.
type RefundItemDTO struct {
	RefundID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderItemID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity    int
	AmountCents int64
}

// TableName maps refund allocations to the "refund_items" table.
func (RefundItemDTO) TableName() string {
	return "refund_items"
}

func addressFromDomain(a kernel.Address) AddressDTO {
	return AddressDTO{
		Name:       a.Name(),
		Street1:    a.Street1(),
		Street2:    a.Street2(),
		City:       a.City(),
		State:      a.State(),
		PostalCode: a.PostalCode(),
		Country:    a.Country(),
		Phone:      a.Phone(),
		Email:      a.Email(),
	}
}

func addressToDomain(dto AddressDTO) (kernel.Address, error) {
	return kernel.NewAddress(
		dto.Name, dto.Street1, dto.Street2, dto.City, dto.State,
		dto.PostalCode, dto.Country, dto.Phone, dto.Email,
	)
}

// fromDomain converts an order aggregate to its database representation,
// children included.
func fromDomain(aggregate *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:                aggregate.ID().Bytes(),
		Number:            aggregate.Number(),
		Currency:          aggregate.Currency(),
		CustomerName:      aggregate.CustomerName(),
		CustomerEmail:     aggregate.CustomerEmail(),
		PaymentStatus:     int(aggregate.PaymentStatus()),
		FulfillmentStatus: int(aggregate.FulfillmentStatus()),
		GrandTotalCents:   aggregate.GrandTotal().Cents(),
		BillingAddress:    addressFromDomain(aggregate.BillingAddress()),
		ShippingAddress:   addressFromDomain(aggregate.ShippingAddress()),
		CancelReason:      aggregate.CancelReason(),
		CancelledAt:       aggregate.CancelledAt(),
		Tags:              pq.StringArray(aggregate.Tags()),
		Notes:             aggregate.Notes(),
		CreatedAt:         aggregate.CreatedAt(),
		UpdatedAt:         aggregate.UpdatedAt(),
	}

	orderID := dto.ID
	for _, item := range aggregate.Items() {
		dto.Items = append(dto.Items, ItemDTO{
			ID:           item.ID().Bytes(),
			OrderID:      orderID,
			Name:         item.Name(),
			Quantity:     item.Quantity(),
			PriceCents:   item.Price().Cents(),
			FulfilledQty: item.FulfilledQty(),
			RefundedQty:  item.RefundedQty(),
		})
	}

	for _, payment := range aggregate.Payments() {
		dto.Payments = append(dto.Payments, PaymentDTO{
			ID:               payment.ID().Bytes(),
			OrderID:          orderID,
			AmountCents:      payment.Amount().Cents(),
			CapturedCents:    payment.Captured().Cents(),
			RefundedCents:    payment.Refunded().Cents(),
			Provider:         payment.Provider(),
			ProviderChargeID: payment.ProviderChargeID(),
			Status:           int(payment.Status()),
			CapturedAt:       payment.CapturedAt(),
		})
	}

	for _, shipment := range aggregate.Shipments() {
		shipmentDTO := ShipmentDTO{
			ID:                shipment.ID().Bytes(),
			OrderID:           orderID,
			Carrier:           shipment.Carrier(),
			Service:           shipment.Service(),
			TrackingNumber:    shipment.TrackingNumber(),
			LabelURL:          shipment.LabelURL(),
			CostCents:         shipment.Cost().Cents(),
			Status:            int(shipment.Status()),
			FromAddress:       addressFromDomain(shipment.FromAddress()),
			ToAddress:         addressFromDomain(shipment.ToAddress()),
			EstimatedDelivery: shipment.EstimatedDelivery(),
			ActualDelivery:    shipment.ActualDelivery(),
		}
		for _, item := range shipment.Items() {
			shipmentDTO.Items = append(shipmentDTO.Items, ShipmentItemDTO{
				ShipmentID:  shipmentDTO.ID,
				OrderItemID: item.OrderItemID.Bytes(),
				Quantity:    item.Quantity,
			})
		}
		for _, event := range shipment.Events() {
			shipmentDTO.Events = append(shipmentDTO.Events, TrackingEventDTO{
				ID:          event.ID.Bytes(),
				ShipmentID:  shipmentDTO.ID,
				Status:      int(event.Status),
				Description: event.Description,
				Location:    event.Location,
				OccurredAt:  event.OccurredAt,
			})
		}
		dto.Shipments = append(dto.Shipments, shipmentDTO)
	}

	for _, refund := range aggregate.Refunds() {
		refundDTO := RefundDTO{
			ID:               refund.ID().Bytes(),
			OrderID:          orderID,
			AmountCents:      refund.Amount().Cents(),
			Reason:           refund.Reason(),
			Status:           int(refund.Status()),
			Provider:         refund.Provider(),
			ProviderRefundID: refund.ProviderRefundID(),
		}
		for _, item := range refund.Items() {
			refundDTO.Items = append(refundDTO.Items, RefundItemDTO{
				RefundID:    refundDTO.ID,
				OrderItemID: item.OrderItemID.Bytes(),
				Quantity:    item.Quantity,
				AmountCents: item.Amount.Cents(),
			})
		}
		dto.Refunds = append(dto.Refunds, refundDTO)
	}

	return dto
}

// toDomain converts a database DTO back to an order aggregate using the
// domain Restore constructors, which re-check every invariant on the way in.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	billing, err := addressToDomain(dto.BillingAddress)
	if err != nil {
		return nil, err
	}
	shipping, err := addressToDomain(dto.ShippingAddress)
	if err != nil {
		return nil, err
	}

	grandTotal, err := kernel.NewMoney(dto.GrandTotalCents)
	if err != nil {
		return nil, err
	}

	items := make([]*order.OrderItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	payments := make([]*order.Payment, 0, len(dto.Payments))
	for _, paymentDTO := range dto.Payments {
		payment, paymentErr := paymentToDomain(paymentDTO)
		if paymentErr != nil {
			return nil, paymentErr
		}
		payments = append(payments, payment)
	}

	shipments := make([]*order.Shipment, 0, len(dto.Shipments))
	for _, shipmentDTO := range dto.Shipments {
		shipment, shipmentErr := shipmentToDomain(shipmentDTO)
		if shipmentErr != nil {
			return nil, shipmentErr
		}
		shipments = append(shipments, shipment)
	}

	refunds := make([]*order.Refund, 0, len(dto.Refunds))
	for _, refundDTO := range dto.Refunds {
		refund, refundErr := refundToDomain(refundDTO)
		if refundErr != nil {
			return nil, refundErr
		}
		refunds = append(refunds, refund)
	}

	return order.RestoreOrder(
		id,
		dto.Number, dto.Currency, dto.CustomerName, dto.CustomerEmail,
		order.PaymentStatus(dto.PaymentStatus),
		order.FulfillmentStatus(dto.FulfillmentStatus),
		grandTotal,
		billing, shipping,
		dto.CancelReason, dto.CancelledAt,
		[]string(dto.Tags), dto.Notes,
		dto.CreatedAt, dto.UpdatedAt,
		items, payments, shipments, refunds,
	)
}

func itemToDomain(dto ItemDTO) (*order.OrderItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	price, err := kernel.NewMoney(dto.PriceCents)
	if err != nil {
		return nil, err
	}
	return order.RestoreOrderItem(id, dto.Name, dto.Quantity, price, dto.FulfilledQty, dto.RefundedQty)
}

func paymentToDomain(dto PaymentDTO) (*order.Payment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.AmountCents)
	if err != nil {
		return nil, err
	}
	captured, err := kernel.NewMoney(dto.CapturedCents)
	if err != nil {
		return nil, err
	}
	refunded, err := kernel.NewMoney(dto.RefundedCents)
	if err != nil {
		return nil, err
	}
	return order.RestorePayment(
		id, amount, captured, refunded,
		dto.Provider, dto.ProviderChargeID,
		order.PaymentStatus(dto.Status), dto.CapturedAt,
	)
}

func shipmentToDomain(dto ShipmentDTO) (*order.Shipment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	cost, err := kernel.NewMoney(dto.CostCents)
	if err != nil {
		return nil, err
	}
	from, err := addressToDomain(dto.FromAddress)
	if err != nil {
		return nil, err
	}
	to, err := addressToDomain(dto.ToAddress)
	if err != nil {
		return nil, err
	}

	items := make([]order.ShipmentItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		orderItemID, itemErr := kernel.UUIDFromBytes(itemDTO.OrderItemID[:])
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, order.ShipmentItem{
			OrderItemID: orderItemID,
			Quantity:    itemDTO.Quantity,
		})
	}

	events := make([]order.TrackingEvent, 0, len(dto.Events))
	for _, eventDTO := range dto.Events {
		eventID, eventErr := kernel.UUIDFromBytes(eventDTO.ID[:])
		if eventErr != nil {
			return nil, eventErr
		}
		events = append(events, order.TrackingEvent{
			ID:          eventID,
			Status:      order.ShipmentStatus(eventDTO.Status),
			Description: eventDTO.Description,
			Location:    eventDTO.Location,
			OccurredAt:  eventDTO.OccurredAt,
		})
	}

	return order.RestoreShipment(
		id,
		dto.Carrier, dto.Service, dto.TrackingNumber, dto.LabelURL,
		cost, from, to,
		order.ShipmentStatus(dto.Status),
		dto.EstimatedDelivery, dto.ActualDelivery,
		items, events,
	)
}

func refundToDomain(dto RefundDTO) (*order.Refund, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.AmountCents)
	if err != nil {
		return nil, err
	}

	items := make([]order.RefundItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		orderItemID, itemErr := kernel.UUIDFromBytes(itemDTO.OrderItemID[:])
		if itemErr != nil {
			return nil, itemErr
		}
		itemAmount, amountErr := kernel.NewMoney(itemDTO.AmountCents)
		if amountErr != nil {
			return nil, amountErr
		}
		items = append(items, order.RefundItem{
			OrderItemID: orderItemID,
			Quantity:    itemDTO.Quantity,
			Amount:      itemAmount,
		})
	}

	return order.RestoreRefund(
		id, amount, dto.Reason,
		order.RefundStatus(dto.Status),
		dto.Provider, dto.ProviderRefundID,
		items,
	)
}
