package http

import (
	"strings"
	"time"

	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"

	openapitypes "github.com/oapi-codegen/runtime/types"
)

// Error is the uniform error body of the admin API.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OrderSummary is one row of the admin order list.
type OrderSummary struct {
	ID                openapitypes.UUID  `json:"id"`
	Number            string             `json:"number"`
	Currency          string             `json:"currency"`
	CustomerName      string             `json:"customer_name"`
	CustomerEmail     openapitypes.Email `json:"customer_email"`
	PaymentStatus     string             `json:"payment_status"`
	FulfillmentStatus string             `json:"fulfillment_status"`
	GrandTotalCents   int64              `json:"grand_total_cents"`
	ItemCount         int                `json:"item_count"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// OrdersPage is the paginated order list response.
type OrdersPage struct {
	Orders   []OrderSummary `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// CancelOrderRequest is the body of POST .../cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CapturePaymentRequest is the body of POST .../payments/capture.
// A nil amount captures the full authorized amount.
type CapturePaymentRequest struct {
	AmountCents *int64 `json:"amount_cents,omitempty"`
}

// RefundItemPayload allocates part of a refund to one order item.
type RefundItemPayload struct {
	OrderItemID openapitypes.UUID `json:"order_item_id"`
	Quantity    int               `json:"quantity"`
}

// ProcessRefundRequest is the body of POST .../refunds.
type ProcessRefundRequest struct {
	AmountCents int64               `json:"amount_cents"`
	Reason      string              `json:"reason"`
	Items       []RefundItemPayload `json:"items,omitempty"`
}

// FulfillmentItemPayload names an order item and quantity to ship.
type FulfillmentItemPayload struct {
	OrderItemID openapitypes.UUID `json:"order_item_id"`
	Quantity    int               `json:"quantity"`
}

// CreateFulfillmentRequest is the body of POST .../fulfillments.
type CreateFulfillmentRequest struct {
	Items           []FulfillmentItemPayload `json:"items"`
	Carrier         string                   `json:"carrier"`
	Service         string                   `json:"service"`
	Insurance       bool                     `json:"insurance,omitempty"`
	Signature       bool                     `json:"signature,omitempty"`
	ValidateAddress bool                     `json:"validate_address,omitempty"`
}

// AddressPayload is a postal address on the rate-shopping surface.
type AddressPayload struct {
	Name       string `json:"name"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ParcelItemPayload is one line of a shipment to rate.
type ParcelItemPayload struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	WeightGrams int    `json:"weight_grams"`
	ValueCents  int64  `json:"value_cents"`
}

// QuoteRatesRequest is the body of POST /api/v1/shipments/rates.
type QuoteRatesRequest struct {
	FromAddress AddressPayload      `json:"from_address"`
	ToAddress   AddressPayload      `json:"to_address"`
	Items       []ParcelItemPayload `json:"items"`
}

// ShippingRateResponse is one quoted carrier/service option.
type ShippingRateResponse struct {
	Carrier       string `json:"carrier"`
	Service       string `json:"service"`
	CostCents     int64  `json:"cost_cents"`
	EstimatedDays int    `json:"estimated_days"`
	Currency      string `json:"currency"`
}

// TrackingEventPayload is one carrier event on the tracking webhook.
type TrackingEventPayload struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TrackingWebhookRequest is the body of POST /api/v1/webhooks/tracking.
type TrackingWebhookRequest struct {
	ShipmentID openapitypes.UUID      `json:"shipment_id"`
	Events     []TrackingEventPayload `json:"events"`
}

func parsePaymentStatuses(raw string) ([]order.PaymentStatus, error) {
	if raw == "" {
		return nil, nil
	}

	known := map[string]order.PaymentStatus{
		"pending":           order.PaymentPending,
		"authorized":        order.PaymentAuthorized,
		"captured":          order.PaymentCaptured,
		"partiallyrefunded": order.PaymentPartiallyRefunded,
		"refunded":          order.PaymentRefunded,
		"voided":            order.PaymentVoided,
		"failed":            order.PaymentFailed,
	}

	statuses := make([]order.PaymentStatus, 0)
	for _, token := range strings.Split(raw, ",") {
		status, ok := known[strings.ToLower(strings.TrimSpace(token))]
		if !ok {
			return nil, errs.NewValueIsInvalidError("payment_status")
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseFulfillmentStatuses(raw string) ([]order.FulfillmentStatus, error) {
	if raw == "" {
		return nil, nil
	}

	known := map[string]order.FulfillmentStatus{
		"pending":            order.FulfillmentPending,
		"partiallyfulfilled": order.PartiallyFulfilled,
		"fulfilled":          order.Fulfilled,
		"partiallydelivered": order.PartiallyDelivered,
		"delivered":          order.Delivered,
		"cancelled":          order.FulfillmentCancelled,
	}

	statuses := make([]order.FulfillmentStatus, 0)
	for _, token := range strings.Split(raw, ",") {
		status, ok := known[strings.ToLower(strings.TrimSpace(token))]
		if !ok {
			return nil, errs.NewValueIsInvalidError("fulfillment_status")
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseShipmentStatus(raw string) (order.ShipmentStatus, error) {
	known := map[string]order.ShipmentStatus{
		"pending":        order.ShipmentPending,
		"labelcreated":   order.LabelCreated,
		"intransit":      order.InTransit,
		"outfordelivery": order.OutForDelivery,
		"delivered":      order.ShipmentDelivered,
		"exception":      order.ShipmentException,
		"cancelled":      order.ShipmentCancelled,
	}

	status, ok := known[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return order.ShipmentUnknown, errs.NewValueIsInvalidError("status")
	}
	return status, nil
}
