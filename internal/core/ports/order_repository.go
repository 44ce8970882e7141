package ports

import (
	"context"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Aggregates are loaded and stored whole: an order always carries its items,
// payments, shipments and refunds.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate, including all
	// of its child entities, within the current transaction.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Inside a transaction the order row is locked for update, so concurrent
	// mutations of the same order serialize at the database as well.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByShipment retrieves the order owning the given shipment.
	// Used by tracking updates, which are keyed by shipment.
	GetByShipment(ctx context.Context, shipmentID kernel.UUID) (*order.Order, error)
}
