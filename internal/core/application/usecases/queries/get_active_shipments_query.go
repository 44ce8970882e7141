package queries

import (
	"errors"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/guard"
)

var (
	ErrGetActiveShipmentsQueryIsNotConstructed = errors.New(
		"GetActiveShipmentsQuery must be created via NewGetActiveShipmentsQuery constructor",
	)
)

// GetActiveShipmentsQuery retrieves every shipment still moving through the
// carrier network: label created, in transit, out for delivery or flagged
// with a carrier exception. The tracking refresh job polls the carrier for
// exactly this set.
//
// Example:
//
//	query := NewGetActiveShipmentsQuery()
//	shipments, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get active shipments: %w", err)
//	}
type GetActiveShipmentsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveShipmentsQuery creates a query for shipments awaiting delivery.
// This is a parameterless query.
func NewGetActiveShipmentsQuery() GetActiveShipmentsQuery {
	return GetActiveShipmentsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveShipmentsQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveShipmentsQueryIsNotConstructed)
}

// GetActiveShipmentsQueryResponse identifies one shipment to poll the
// carrier for.
type GetActiveShipmentsQueryResponse struct {
	ShipmentID     kernel.UUID
	OrderID        kernel.UUID
	Carrier        string
	TrackingNumber string
	Status         order.ShipmentStatus
}
