package ports

import (
	"context"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
)

// ParcelItem describes one line of a shipment for rating and customs.
type ParcelItem struct {
	Name        string
	Quantity    int
	WeightGrams int
	ValueCents  int64
}

// ShipmentRequest describes a package to rate or buy a label for.
// Carrier and Service are optional for rating and required for purchase.
type ShipmentRequest struct {
	FromAddress kernel.Address
	ToAddress   kernel.Address
	Items       []ParcelItem
	Carrier     string
	Service     string
	Insurance   bool
	Signature   bool
}

// ShippingRate is one quoted carrier/service option.
type ShippingRate struct {
	Carrier       string
	Service       string
	CostCents     int64
	EstimatedDays int
	Currency      string
}

// ShippingLabel is a purchased label.
type ShippingLabel struct {
	LabelID           string
	TrackingNumber    string
	LabelURL          string
	CostCents         int64
	EstimatedDelivery *time.Time
}

// TrackingInfo is one carrier tracking update, with the carrier's native
// status already mapped onto the internal ShipmentStatus enum.
type TrackingInfo struct {
	Status            order.ShipmentStatus
	Description       string
	Location          string
	Timestamp         time.Time
	EstimatedDelivery *time.Time
}

// ShippingCarrier is the capability surface of an external carrier or rate
// aggregator. Implementations are stateless aside from credentials and safe
// for concurrent use.
//
// BuyLabel is a two-step protocol against the provider: create a rate-quote
// shipment, then purchase the specific matched rate. If the requested
// carrier/service pair is not among the quoted rates the call fails before
// any purchase attempt. Unrecognized carrier tracking statuses map to
// InTransit, the safest default for an in-flight package.
type ShippingCarrier interface {
	QuoteRates(ctx context.Context, req ShipmentRequest) ([]ShippingRate, error)
	BuyLabel(ctx context.Context, req ShipmentRequest) (ShippingLabel, error)
	VoidLabel(ctx context.Context, labelID string) (bool, error)
	Track(ctx context.Context, trackingNumber, carrier string) ([]TrackingInfo, error)
	ValidateAddress(ctx context.Context, address kernel.Address) (kernel.Address, error)
}
